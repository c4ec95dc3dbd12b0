// Package main はWebサーバーのエントリーポイントです。
package main

import (
	"os"
)

// ビルド時に埋め込むバージョン
var version = "dev"

func main() {
	cmd := NewRootCmd()
	cmd.Version = version

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
