package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/agrinos/plantclassifier/api"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "login":
		err = commandSignIn("login", args)
	case "register":
		err = commandSignIn("register", args)
	case "logout":
		err = commandLogout(args)
	case "whoami":
		err = commandWhoAmI(args)
	case "oauth-callback":
		err = commandOAuthCallback(args)
	case "token":
		err = commandToken(args)
	case "predict":
		err = commandPredict(args)
	case "history":
		err = commandRaw("history", args, (*api.Client).PredictionHistory)
	case "sensors":
		err = commandRaw("sensors", args, (*api.Client).SensorHistory)
	case "plants":
		err = commandRaw("plants", args, (*api.Client).ListPlants)
	case "plant":
		err = commandPlant(args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		if errors.Is(err, api.ErrSessionExpired) || errors.Is(err, api.ErrNotSignedIn) {
			fmt.Fprintln(os.Stderr, "session expired or missing, run `plantctl login` to sign in again")
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`plantctl - plant classifier command line client

Usage:
  plantctl login --email EMAIL --role ROLE [--name NAME]
  plantctl register --email EMAIL --role ROLE [--name NAME]
  plantctl logout
  plantctl whoami
  plantctl oauth-callback --url REDIRECT_URL
  plantctl token
  plantctl predict --image FILE
  plantctl history
  plantctl sensors
  plantctl plants
  plantctl plant --species NAME

Roles: farmer, agricultural, pharmaceutical, admin

Every command accepts --api URL to override API_URL and --metrics to print
client request and refresh counters on exit.`)
}
