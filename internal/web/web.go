// Package web は画面テンプレートと静的ファイルを埋め込みで提供します。
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Templates は register / login / dashboard のテンプレートを読み込みます。
// テンプレート名はファイル名（例: "login.tmpl"）です。
func Templates() (*template.Template, error) {
	return template.New("").ParseFS(templateFS, "templates/*.tmpl")
}

// Static は /static 配下で配信するファイルシステムを返します。
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// 埋め込みパスは固定なので失敗しない
		panic(err)
	}
	return http.FS(sub)
}
