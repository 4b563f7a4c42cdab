// internal/types/error.go
//
// A document mapping and routing layer for the jam-build data services
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of propsodm.
// propsodm is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// propsodm is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with propsodm.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package types

import "fmt"

// CustomError is the error body returned by the HTTP layer. Code is a stable
// machine readable reason, Details carries the underlying cause.
type CustomError struct {
	Status  int    `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Details string `json:"details,omitempty"`
}

func (e *CustomError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%d: %s [type: %s, code: %s]: %s", e.Status, e.Message, e.Type, e.Code, e.Details)
	}
	return fmt.Sprintf("%d: %s [type: %s]", e.Status, e.Message, e.Type)
}

// NewBadRequest builds a 400 error for a malformed client input.
func NewBadRequest(code, message string, cause error) *CustomError {
	e := &CustomError{Status: 400, Code: code, Message: message, Type: "request"}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}
