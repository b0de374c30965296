// Package testdb opens migrated databases for store tests.
//
// SQLite databases are created in the test's temp directory. PostgreSQL
// databases come from SORIGHT_TEST_DATABASE_URL when it is set; otherwise a
// postgres container is started once per test binary and every call gets
// its own freshly created database inside it, so parallel tests never share
// rows. Containers are reaped by testcontainers when the binary exits.
package testdb
