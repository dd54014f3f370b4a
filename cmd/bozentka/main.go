// Command bozentka はBozentka LabsサイトのAPIサーバー。
//
//	bozentka [serve]     APIサーバーを起動する（デフォルト）
//	bozentka notes       投稿一覧を1回集約してJSONを出力する
//	bozentka healthcheck /health を確認する（Dockerヘルスチェック用）
package main

import (
	"fmt"
	"os"

	"github.com/bozentka/labs-site/internal/app"
)

func main() {
	if err := app.Run(os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
