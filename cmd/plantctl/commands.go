package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agrinos/plantclassifier/api"
	"github.com/agrinos/plantclassifier/auth"
	"github.com/agrinos/plantclassifier/users"
)

func commandSignIn(name string, args []string) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	flags := addCommonFlags(fs)
	email := fs.String("email", "", "Email address")
	displayName := fs.String("name", "", "Display name (defaults to the email local part)")
	role := fs.String("role", string(users.DisplayFarmer), "Role: farmer, agricultural, pharmaceutical or admin")
	_ = fs.Parse(args)

	parsed, err := users.ParseDisplayRole(*role)
	if err != nil {
		return err
	}
	creds := auth.Credentials{Email: *email, Name: *displayName, Role: parsed}

	return withApp(flags, func(ctx context.Context, a *app) error {
		var (
			user *auth.CurrentUser
			err  error
		)
		if name == "register" {
			user, err = a.service.Register(ctx, creds)
		} else {
			user, err = a.service.Login(ctx, creds)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "signed in as %s (%s)\n", user.Email, user.Role)
		return printJSON(os.Stdout, user)
	})
}

func commandLogout(args []string) error {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	flags := addCommonFlags(fs)
	_ = fs.Parse(args)

	return withApp(flags, func(ctx context.Context, a *app) error {
		if err := a.service.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("signed out")
		return nil
	})
}

func commandWhoAmI(args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ExitOnError)
	flags := addCommonFlags(fs)
	_ = fs.Parse(args)

	return withApp(flags, func(ctx context.Context, a *app) error {
		user, ok := a.service.CurrentUser(ctx)
		if !ok {
			return api.ErrNotSignedIn
		}
		return printJSON(os.Stdout, user)
	})
}

func commandOAuthCallback(args []string) error {
	fs := flag.NewFlagSet("oauth-callback", flag.ExitOnError)
	flags := addCommonFlags(fs)
	redirect := fs.String("url", "", "Redirect URL (or its query string) carrying accessToken and refreshToken")
	_ = fs.Parse(args)

	query, err := callbackQuery(*redirect)
	if err != nil {
		return err
	}
	return withApp(flags, func(ctx context.Context, a *app) error {
		user, err := a.service.CompleteOAuth(ctx, query)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, user)
	})
}

// commandToken prints a usable access token, renewing it first when the
// stored one has expired.
func commandToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	flags := addCommonFlags(fs)
	_ = fs.Parse(args)

	return withApp(flags, func(ctx context.Context, a *app) error {
		tok, err := a.client.TokenSource(ctx).Token()
		if err != nil {
			return err
		}
		out := map[string]any{"accessToken": tok.AccessToken, "tokenType": tok.Type()}
		if !tok.Expiry.IsZero() {
			out["expiresAt"] = tok.Expiry.Format(time.RFC3339)
		}
		return printJSON(os.Stdout, out)
	})
}

func commandPredict(args []string) error {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	flags := addCommonFlags(fs)
	image := fs.String("image", "", "Path to the leaf image")
	_ = fs.Parse(args)

	if strings.TrimSpace(*image) == "" {
		return errors.New("--image is required")
	}
	f, err := os.Open(*image)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	return withApp(flags, func(ctx context.Context, a *app) error {
		resp, err := a.client.Predict(ctx, filepath.Base(*image), f)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, resp)
	})
}

func commandPlant(args []string) error {
	fs := flag.NewFlagSet("plant", flag.ExitOnError)
	flags := addCommonFlags(fs)
	species := fs.String("species", "", "Plant species, e.g. tomato")
	_ = fs.Parse(args)

	if *species == "" && fs.NArg() > 0 {
		*species = fs.Arg(0)
	}
	if strings.TrimSpace(*species) == "" {
		return errors.New("--species is required")
	}
	return withApp(flags, func(ctx context.Context, a *app) error {
		raw, err := a.client.GetPlant(ctx, *species)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, raw)
	})
}

// commandRaw runs an argument-free read and prints the payload as returned.
func commandRaw(name string, args []string, call func(*api.Client, context.Context) (json.RawMessage, error)) error {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	flags := addCommonFlags(fs)
	_ = fs.Parse(args)

	return withApp(flags, func(ctx context.Context, a *app) error {
		raw, err := call(a.client, ctx)
		if err != nil {
			return err
		}
		return printJSON(os.Stdout, raw)
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
