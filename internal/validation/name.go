// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-_]*$`)

// NameValidator checks stage and broker names: word characters
// plus non-leading '-' or '_', at most 255 characters.
type NameValidator struct {
	name      string
	customErr error
}

var _ Validator = (*NameValidator)(nil)

// NewNameValidator creates an instance of NameValidator.
// customErr, when set, is returned in place of the generic error.
func NewNameValidator(name string, customErr error) *NameValidator {
	return &NameValidator{name: name, customErr: customErr}
}

// Validate implements validation.Validator.
func (v *NameValidator) Validate() error {
	name := strings.TrimSpace(v.name)
	if name != "" && len(name) <= 255 && namePattern.MatchString(name) {
		return nil
	}
	if v.customErr != nil {
		return fmt.Errorf("%w: %q", v.customErr, v.name)
	}
	return fmt.Errorf("invalid name %q", v.name)
}
