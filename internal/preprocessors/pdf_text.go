// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package preprocessors

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"panhunt/internal/resilience"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// extractPDFText returns the plain text of every page of a PDF document.
// When extraction fails, pdfcpu validation decides whether the document
// is encrypted or simply corrupt.
func extractPDFText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", classifyPDFFailure(data, fmt.Errorf("pdf reader panicked: %v", r))
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", classifyPDFFailure(data, err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", classifyPDFFailure(data, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", classifyPDFFailure(data, err)
	}
	return buf.String(), nil
}

func classifyPDFFailure(data []byte, cause error) error {
	if errors.Is(cause, pdf.ErrInvalidPassword) {
		return resilience.NewPasswordProtected("encrypted PDF", cause)
	}

	verr := api.Validate(bytes.NewReader(data), model.NewDefaultConfiguration())
	if verr != nil {
		msg := strings.ToLower(verr.Error())
		if strings.Contains(msg, "password") || strings.Contains(msg, "encrypt") {
			return resilience.NewPasswordProtected("encrypted PDF", verr)
		}
		return resilience.NewCorruptContainer("invalid PDF", verr)
	}
	return resilience.NewCorruptContainer("cannot extract PDF text", cause)
}
