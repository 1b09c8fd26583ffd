package main

import (
	"cintel-backend/cmd/cintel/commands"
	"cintel-backend/lib/configutil"
	"cintel-backend/lib/telemetry"
	"cintel-backend/lib/util/serviceutil"
)

func main() {
	configutil.LoadEnv()

	ctx := serviceutil.SignalContext()
	tel, err := telemetry.SetupFromEnv(ctx, "cintel")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer tel.Shutdown(ctx)
	telemetry.InitSlog(false)

	commands.ExecuteContext(ctx)
}
