package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモード。サブコマンド省略時のデフォルト。
	CommandServe Command = "serve"
	// CommandWorker はクリーンアップワーカーモード。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションの一括適用。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は/healthへの疎通確認。distroless環境のDocker HEALTHCHECK用。
	CommandHealthcheck Command = "healthcheck"
	// CommandWhoami はクライアントとしてセッションを解決し、現在の識別情報を表示する。
	CommandWhoami Command = "whoami"
)

var knownCommands = map[string]Command{
	"serve":       CommandServe,
	"worker":      CommandWorker,
	"migrate":     CommandMigrate,
	"healthcheck": CommandHealthcheck,
	"whoami":      CommandWhoami,
}

// ParseCommand はコマンドライン引数の先頭からサブコマンドを解析する。
// 2番目以降の引数は無視する。引数が空またはサポート外の場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := knownCommands[args[0]]; ok {
		return cmd
	}
	return CommandServe
}
