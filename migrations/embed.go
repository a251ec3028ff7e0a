// Package migrations はスキーママイグレーションのSQLファイルを埋め込む。
package migrations

import (
	"embed"
	"io/fs"
	"os"
)

// FS は {version}_{name}.sql 形式のマイグレーションファイルを保持する。
//
//go:embed *.sql
var FS embed.FS

// Source はマイグレーションの読み込み元を返す。
// dir が空なら埋め込みファイル、指定があればそのディレクトリを使う。
func Source(dir string) fs.FS {
	if dir == "" {
		return FS
	}
	return os.DirFS(dir)
}
