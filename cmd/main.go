package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"budgetpilot/cmd/executor"
	"budgetpilot/src/database"
	"budgetpilot/src/server"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "BudgetPilot CMD"
	app.Usage = "The BudgetPilot command line interface"

	app.Commands = []cli.Command{
		serverCMD,
		workerCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	serverCMD = cli.Command{
		Name:        "server",
		Usage:       "run API server",
		Action:      serverAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the autopilot API server`,
	}
	workerCMD = cli.Command{
		Name:        "worker",
		Usage:       "run autopilot worker",
		Action:      workerAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the autopilot recommendation worker loop`,
	}
)

func serverAction(_ *cli.Context) error {

	logrus.Info("Starting server CMD")

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	server.StartServer(server.GetConfig().Port)

	return nil
}

func workerAction(_ *cli.Context) error {

	logrus.Info("Starting worker CMD")
	logrus.WithField("cmd", "worker")

	worker := &executor.Executor{}
	err := worker.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}
