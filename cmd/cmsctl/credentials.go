package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/plaenen/cmscore/pkg/config"
	"github.com/plaenen/cmscore/pkg/security/credentials"
)

// runCredentials encrypts NATS credentials into the configured bucket.
func runCredentials(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("credentials", flag.ContinueOnError)
	var (
		credType = fs.String("type", string(credentials.CredentialTypeToken), "token, user_password, nkey or jwt")
		token    = fs.String("token", "", "token for -type token")
		user     = fs.String("user", "", "user for -type user_password")
		pass     = fs.String("password", "", "password for -type user_password")
		seed     = fs.String("seed", "", "NKey seed for -type nkey or jwt")
		jwt      = fs.String("jwt", "", "user JWT for -type jwt")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.NATSCredentialsURL == "" {
		return errors.New("CMS_NATS_CREDENTIALS_URL is not set")
	}

	creds := &credentials.Credentials{
		Type:     credentials.CredentialType(*credType),
		Token:    *token,
		User:     *user,
		Password: *pass,
		Seed:     *seed,
		JWTToken: *jwt,
	}
	loc := credentialsLocation(cfg)
	if err := credentials.StoreCredentials(ctx, loc, creds); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "stored %s credentials at %s/%s\n", creds.Type, loc.BucketURL, loc.Key)
	return nil
}
