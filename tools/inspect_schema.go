// tools/inspect_schema.go
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

package main

import (
	"flag"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/localnerve/propsodm/internal/database"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	dsn := flag.String("db", ":memory:", "sqlite database to inspect")
	flag.Parse()

	db, err := gorm.Open(sqlite.Open(*dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logrus.Fatal(err)
	}

	// Auto-migrate to see what GORM creates
	if err := database.AutoMigrate(db); err != nil {
		logrus.Fatal(err)
	}

	migrator := db.Migrator()
	tables, err := migrator.GetTables()
	if err != nil {
		logrus.Fatal(err)
	}

	for _, table := range tables {
		fmt.Printf("\n=== Table: %s ===\n", table)
		columns, err := migrator.ColumnTypes(table)
		if err != nil {
			logrus.WithField("table", table).Fatal(err)
		}
		for _, col := range columns {
			nullable, _ := col.Nullable()
			primary, _ := col.PrimaryKey()
			fmt.Printf("%-14s %-12s nullable=%-5t primary=%t\n", col.Name(), col.DatabaseTypeName(), nullable, primary)
		}

		indexes, err := migrator.GetIndexes(table)
		if err != nil {
			logrus.WithField("table", table).Fatal(err)
		}
		for _, idx := range indexes {
			unique, _ := idx.Unique()
			fmt.Printf("index %s %v unique=%t\n", idx.Name(), idx.Columns(), unique)
		}
	}
}
