// assets/embed.go
//
// Embedded static data:
//   - hacker_questions.json: the default puzzle catalog.
//   - sql/*.sql: schema migrations for the SQLite session store.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed hacker_questions.json sql/*.sql
var FS embed.FS

// HackerQuestions returns the raw embedded puzzle catalog.
func HackerQuestions() ([]byte, error) {
	return FS.ReadFile("hacker_questions.json")
}

// Migrations returns the migration files rooted at sql/.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "sql")
	if err != nil {
		// sql/ is embedded at compile time; Sub only fails on an invalid path.
		panic(err)
	}
	return sub
}
