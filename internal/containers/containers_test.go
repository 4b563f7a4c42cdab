// internal/containers/containers_test.go
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

package containers

import (
	"context"
	"os"
	"testing"

	"github.com/localnerve/propsodm/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	script := `
-- leading comment
CREATE TABLE t (
  a INT, -- trailing comment
  b VARCHAR(10) DEFAULT 'x--y;z'
);
INSERT INTO t VALUES (1, "semi;colon");
SELECT 1`

	assert.Equal(t, []string{
		"CREATE TABLE t (   a INT,    b VARCHAR(10) DEFAULT 'x--y;z' )",
		`INSERT INTO t VALUES (1, "semi;colon")`,
		"SELECT 1",
	}, SplitStatements(script))
}

func TestInitScripts(t *testing.T) {
	vars := map[string]string{"DB_DATABASE": "odm", "DB_USER": "app"}

	tables := SplitStatements(ExpandScript(data.InitdbMariaDBTables, vars))
	require.Len(t, tables, 1)
	assert.Contains(t, tables[0], "CREATE TABLE IF NOT EXISTS odm.odm_documents")
	assert.Contains(t, tables[0], "UNIQUE KEY idx_collection_document (collection, document_id)")

	privileges := SplitStatements(ExpandScript(data.InitdbMariaDBPrivileges, vars))
	assert.Equal(t, []string{
		"GRANT SELECT, INSERT, UPDATE, DELETE ON odm.odm_documents TO 'app'@'%'",
		"FLUSH PRIVILEGES",
	}, privileges)
}

func TestStartMongo(t *testing.T) {
	if testing.Short() || os.Getenv("MONGO_IMAGE") == "" {
		t.Skip("set MONGO_IMAGE to run container tests")
	}
	t.Setenv("DB_TYPE", "mongodb")

	ctx := context.Background()
	dc, err := Start(ctx)
	require.NoError(t, err)
	defer dc.Terminate(ctx)

	assert.Equal(t, "mongodb", dc.Env["DB_TYPE"])
	assert.Contains(t, dc.Env["MONGO_URI"], "mongodb://")
}
