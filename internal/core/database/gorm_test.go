package database

import (
	"context"
	"net/url"
	"strings"
	"testing"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	assert.Equal(t, "u:p@tcp(127.0.0.1:3306)/app?parseTime=true",
		normalizeMySQLDSN("u:p@tcp(127.0.0.1:3306)/app?parseTime=true", "x", "y"), "native dsn untouched")
	assert.Empty(t, normalizeMySQLDSN("  ", "", ""))

	cases := []struct {
		name, in, user, pass string
		wantUser, wantPass   string
		wantAddr, wantDB     string
		wantCharset, wantTLS string
	}{
		{
			name:        "jdbc url",
			in:          "jdbc:mysql://db:3306/app?useUnicode=true&characterEncoding=utf8&useSSL=false",
			user:        "root",
			pass:        "secret",
			wantUser:    "root",
			wantPass:    "secret",
			wantAddr:    "db:3306",
			wantDB:      "app",
			wantCharset: "utf8",
		},
		{
			name:        "url credentials",
			in:          "mysql://a:b@h:3306/d?useSSL=true",
			wantUser:    "a",
			wantPass:    "b",
			wantAddr:    "h:3306",
			wantDB:      "d",
			wantCharset: "utf8mb4",
			wantTLS:     "true",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dsn := normalizeMySQLDSN(tc.in, tc.user, tc.pass)
			c, err := gomysql.ParseDSN(dsn)
			require.NoError(t, err, dsn)
			assert.Equal(t, tc.wantUser, c.User)
			assert.Equal(t, tc.wantPass, c.Passwd)
			assert.Equal(t, "tcp", c.Net)
			assert.Equal(t, tc.wantAddr, c.Addr)
			assert.Equal(t, tc.wantDB, c.DBName)
			assert.True(t, c.ParseTime)
			assert.Equal(t, tc.wantTLS, c.TLSConfig)

			_, rawQuery, _ := strings.Cut(dsn, "?")
			q, err := url.ParseQuery(rawQuery)
			require.NoError(t, err)
			assert.Equal(t, tc.wantCharset, q.Get("charset"))
			assert.Empty(t, q.Get("useUnicode"))
		})
	}
}

func TestNewGorm_SQLite(t *testing.T) {
	db, err := NewGorm(Opts{
		Driver:       "sqlite",
		DSN:          "file:" + t.Name() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	assert.NoError(t, Ping(db)(context.Background()))
}

func TestNewGorm_UnsupportedDriver(t *testing.T) {
	_, err := NewGorm(Opts{Driver: "oracle"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}
