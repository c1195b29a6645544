// Command bootstrap-api-key creates an owner account and its first API key.
//
//	go run ./scripts/bootstrap-api-key.go -email me@example.com -format json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/oklog/ulid/v2"

	"github.com/cardcycle/cardcycle/internal/auth"
	"github.com/cardcycle/cardcycle/internal/model"
	"github.com/cardcycle/cardcycle/internal/repository"
)

type output struct {
	UserID    string   `json:"user_id"`
	Email     string   `json:"email"`
	KeyID     string   `json:"key_id"`
	Key       string   `json:"key"`
	KeyPrefix string   `json:"key_prefix"`
	Scopes    []string `json:"scopes"`
}

func main() {
	_ = godotenv.Load()

	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", "owner@cardcycle.local", "Owner email")
		ownerName   = flag.String("owner-name", "", "Owner display name")
		name        = flag.String("name", "bootstrap", "API key name")
		scopesInput = flag.String("scopes", "admin", "Comma-separated scopes (read,write,admin)")
		env         = flag.String("env", auth.EnvLive, "Key environment: live or test")
		migrate     = flag.Bool("migrate", true, "Apply migrations first")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if err := run(*databaseURL, *email, *ownerName, *name, *scopesInput, *env, *migrate, *format); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(databaseURL, email, ownerName, keyName, scopesInput, env string, migrate bool, format string) error {
	if databaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	format = strings.ToLower(format)
	if format != "plain" && format != "json" {
		return errors.New("invalid format; use plain or json")
	}

	scopes, err := parseScopes(scopesInput)
	if err != nil {
		return err
	}

	if migrate {
		if err := repository.RunMigrations(databaseURL); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer repo.Close()

	user, err := repo.GetOrCreateUser(ctx, &model.User{
		ID:    ulid.Make().String(),
		Email: email,
		Name:  ownerName,
	})
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	generated, err := auth.NewKey(env)
	if err != nil {
		return fmt.Errorf("generate api key: %w", err)
	}

	apiKey := &model.APIKey{
		ID:            ulid.Make().String(),
		UserID:        user.ID,
		KeyHash:       generated.Hash,
		KeyPrefix:     generated.Prefix,
		Scopes:        scopes,
		RateLimitTier: model.TierUnlimited,
		Name:          keyName,
		CreatedAt:     time.Now().UTC(),
	}
	if err := repo.CreateAPIKey(ctx, apiKey); err != nil {
		return fmt.Errorf("create api key: %w", err)
	}

	out := output{
		UserID:    user.ID,
		Email:     user.Email,
		KeyID:     apiKey.ID,
		Key:       generated.Plaintext,
		KeyPrefix: apiKey.KeyPrefix,
		Scopes:    scopes,
	}

	if format == "plain" {
		fmt.Println(out.Key)
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func parseScopes(input string) ([]string, error) {
	var scopes []string
	for _, part := range strings.Split(input, ",") {
		scope := strings.TrimSpace(part)
		if scope == "" {
			continue
		}
		if !slices.Contains(model.ValidScopes, scope) {
			return nil, fmt.Errorf("invalid scope: %s", scope)
		}
		scopes = append(scopes, scope)
	}
	if len(scopes) == 0 {
		scopes = []string{model.ScopeAdmin}
	}
	return scopes, nil
}
