// Package generate triggers the code generators of the project: translation
// catalogs, shell completions and man pages.
package generate

//go:generate go run -tags tools generate_locales.go update-po
//go:generate go run -tags tools generate_locales.go generate-mo
//go:generate go run -tags tools generate_completion_documentation.go completion ../generated
//go:generate go run -tags tools generate_completion_documentation.go man ../generated
