// internal/models/errors.go
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

package models

import (
	"errors"
	"fmt"
)

// Sentinel errors, matchable with errors.Is through DefinitionError and MappingError.
var (
	ErrDuplicateID         = errors.New("duplicate identity property")
	ErrMissingID           = errors.New("missing identity property")
	ErrCannotConstruct     = errors.New("cannot be constructed")
	ErrInvalidDefinition   = errors.New("invalid model definition")
	ErrMalformedCiphertext = errors.New("malformed ciphertext")
	ErrNoCipherKey         = errors.New("no cipher key")
)

// DefinitionError reports a model declaration that cannot be used.
type DefinitionError struct {
	Model    string
	Property string
	Message  string
	Kind     error
}

func (e *DefinitionError) Error() string {
	return e.Message
}

func (e *DefinitionError) Unwrap() error {
	return e.Kind
}

// MappingError reports a failure while converting between representations.
// Property is the dotted path of the offending property, relative to Model.
type MappingError struct {
	Model    string
	Property string
	Message  string
	Kind     error
	Err      error
}

func (e *MappingError) Error() string {
	msg := e.Message
	switch {
	case e.Property != "":
		msg = fmt.Sprintf("%s.%s: %s", e.Model, e.Property, e.Message)
	case e.Model != "":
		msg = fmt.Sprintf("%s: %s", e.Model, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MappingError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Path returns the model qualified property path carried by err, if any.
func Path(err error) string {
	var me *MappingError
	if errors.As(err, &me) {
		if me.Property == "" {
			return me.Model
		}
		return me.Model + "." + me.Property
	}
	var de *DefinitionError
	if errors.As(err, &de) {
		if de.Property == "" {
			return de.Model
		}
		return de.Model + "." + de.Property
	}
	return ""
}

func constructError(owner *Model, property string, nested *Model, err error) error {
	return &MappingError{
		Model:    owner.Name(),
		Property: property,
		Message:  fmt.Sprintf("nested model %s cannot be constructed", nested.Name()),
		Kind:     ErrCannotConstruct,
		Err:      err,
	}
}

// nestError re-roots an error raised below property so its path starts at owner.
func nestError(owner *Model, property string, err error) error {
	var me *MappingError
	if errors.As(err, &me) {
		path := property
		if me.Property != "" {
			path += "." + me.Property
		}
		return &MappingError{Model: owner.Name(), Property: path, Message: me.Message, Kind: me.Kind, Err: me.Err}
	}
	return &MappingError{Model: owner.Name(), Property: property, Message: "mapping failed", Err: err}
}
