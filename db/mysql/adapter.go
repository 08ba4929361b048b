// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	db "github.com/czcorpus/vert-tagextract/v3/db"
	"github.com/go-sql-driver/mysql"
)

const (
	dbTypeMySQL = "mysql"
)

var ErrUnsupportedDBType = errors.New("unsupported database type")

type Adapter struct {
	db      *sql.DB
	conf    db.Conf
	dbName  string
	isAdHoc bool
}

func (a *Adapter) DB() *sql.DB {
	return a.db
}

func (a *Adapter) DBName() string {
	return a.dbName
}

func (a *Adapter) Conf() db.Conf {
	return a.conf
}

// Info returns a brief description of the connection
// suitable for logging (no credentials included).
func (a *Adapter) Info() string {
	return fmt.Sprintf("%s@%s", a.conf.Name, a.conf.Host)
}

func (a *Adapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// Close closes the wrapped database connection.
// Only connections which are not "ad-hoc" can
// be closed this way. This applies e.g. for
// the "import-tuned" connection which is meant
// to live just for the time of import and then
// closed.
// In case the adapter is closed for a non-adhoc
// connection, the method panics.
func (a *Adapter) Close() error {
	if !a.isAdHoc {
		panic("trying to close non-adhoc database Adapter")
	}
	return a.db.Close()
}

// NewConfig creates a driver configuration from the common
// database configuration. Only the `mysql` type (or an empty one)
// is supported.
func NewConfig(conf db.Conf) (*mysql.Config, error) {
	if conf.Type != dbTypeMySQL && conf.Type != "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDBType, conf.Type)
	}
	mconf := mysql.NewConfig()
	mconf.Net = "tcp"
	mconf.Addr = conf.Host
	mconf.User = conf.User
	mconf.Passwd = conf.Password
	mconf.DBName = conf.Name
	mconf.ParseTime = true
	mconf.Loc = time.Local
	mconf.Params = map[string]string{"autocommit": "true"}
	return mconf, nil
}

func OpenDB(conf db.Conf) (*Adapter, error) {
	mconf, err := NewConfig(conf)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db, err := sql.Open("mysql", mconf.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Adapter{db: db, dbName: mconf.DBName, conf: conf}, nil
}

// OpenImportTunedDB creates an Adapter instance with
// undrelying connection session having slightly modified
// parameters suitable for faster data import (unique checks disabled,
// foreign checks disabled). It is used for bulk import of transcriptions
// from annotated verticals.
func OpenImportTunedDB(conf db.Conf) (*Adapter, error) {
	a, err := OpenDB(conf)
	if err != nil {
		return nil, err
	}
	a.isAdHoc = true
	// session variables apply to a single connection only
	a.db.SetMaxOpenConns(1)
	for _, q := range []string{
		"SET SESSION unique_checks = 0",
		"SET SESSION foreign_key_checks = 0",
	} {
		if _, err = a.db.Exec(q); err != nil {
			return nil, fmt.Errorf("failed to tune database session: %w", err)
		}
	}
	return a, nil
}
