// internal/types/types_test.go
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

package types_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/localnerve/propsodm/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexListAcceptsSingleValueOrArray(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []map[string]int
	}{
		{"single", `{"name":1}`, []map[string]int{{"name": 1}}},
		{"array", `[{"name":1},{"age":-1}]`, []map[string]int{{"name": 1}, {"age": -1}}},
		{"padded", "  {\"zip\":-1}\n", []map[string]int{{"zip": -1}}},
		{"null", `null`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var list types.FlexList[map[string]int]
			require.NoError(t, json.Unmarshal([]byte(tt.input), &list))
			assert.Equal(t, tt.want, list.Slice())
		})
	}
}

func TestFlexListKeepsRawElementsInOrder(t *testing.T) {
	var list types.FlexList[json.RawMessage]
	require.NoError(t, json.Unmarshal([]byte(`[{"name":1}, {"age":-1}]`), &list))

	require.Len(t, list, 2)
	assert.JSONEq(t, `{"name":1}`, string(list[0]))
	assert.JSONEq(t, `{"age":-1}`, string(list[1]))
}

func TestFlexListRejectsMismatchedType(t *testing.T) {
	var list types.FlexList[map[string]int]
	assert.Error(t, json.Unmarshal([]byte(`"name"`), &list))
}

func TestNewBadRequest(t *testing.T) {
	e := types.NewBadRequest("invalid_where_parameter", "Invalid where parameter", errors.New("unexpected end of JSON input"))

	assert.Equal(t, 400, e.Status)
	assert.Equal(t, "unexpected end of JSON input", e.Details)
	assert.Equal(t, "400: Invalid where parameter [type: request, code: invalid_where_parameter]: unexpected end of JSON input", e.Error())
}
