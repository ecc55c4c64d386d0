package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/sheets/v4"
)

const defaultDBFile = ".sheetcal.db"

var oauthConfig *oauth2.Config
var verbosityLevel = 1

func initOAuthConfig(config *Config) {
	oauthConfig = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       []string{calendar.CalendarEventsScope, calendar.CalendarReadonlyScope, sheets.SpreadsheetsReadonlyScope},
	}
}

// openDB opens the state database next to the config file and makes sure its
// schema is current.
func openDB(filename string) (*sql.DB, error) {
	path := filename
	if configDir != "" && !filepath.IsAbs(filename) {
		path = filepath.Join(configDir, filename)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := dbInit(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	return db, nil
}

func getTokenFromWeb(config *oauth2.Config) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser then type the "+
		"authorization code: \n%v\n", authURL)

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}

	tok, err := config.Exchange(context.TODO(), authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

func saveToken(db *sql.DB, accountName string, token *oauth2.Token) error {
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		return err
	}

	_, err = db.Exec("INSERT OR REPLACE INTO tokens (account_name, token) VALUES (?, ?)", accountName, tokenJSON)
	return err
}

func loadToken(db *sql.DB, accountName string) (*oauth2.Token, error) {
	var tokenJSON []byte
	err := db.QueryRow("SELECT token FROM tokens WHERE account_name = ?", accountName).Scan(&tokenJSON)
	if err != nil {
		return nil, err
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("error unmarshaling token: %w", err)
	}
	return &token, nil
}

func obtainToken(config *oauth2.Config, db *sql.DB, accountName string) (*oauth2.Token, error) {
	token, err := getTokenFromWeb(config)
	if err != nil {
		return nil, err
	}
	if err := saveToken(db, accountName, token); err != nil {
		return nil, fmt.Errorf("error saving token: %w", err)
	}
	return token, nil
}

func getClient(ctx context.Context, config *oauth2.Config, db *sql.DB, accountName string) (*http.Client, error) {
	token, err := loadToken(db, accountName)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("error retrieving token from database: %w", err)
		}
		fmt.Printf("  ❗️ No token found for account %s. Obtaining a new token.\n", accountName)
		token, err = obtainToken(config, db, accountName)
		if err != nil {
			return nil, err
		}
		return config.Client(ctx, token), nil
	}

	newToken, err := config.TokenSource(ctx, token).Token()
	if err != nil {
		if strings.Contains(err.Error(), "Token has been expired or revoked") {
			fmt.Printf("  ❗️ Token expired or revoked for account %s. Obtaining a new token.\n", accountName)
			newToken, err = obtainToken(config, db, accountName)
			if err != nil {
				return nil, err
			}
			return config.Client(ctx, newToken), nil
		}
		return nil, fmt.Errorf("error retrieving token from token source: %w", err)
	}

	if newToken.AccessToken != token.AccessToken {
		printVerbosely(3, "Token refreshed for account %s.\n", accountName)
		if err := saveToken(db, accountName, newToken); err != nil {
			return nil, fmt.Errorf("error saving token: %w", err)
		}
	}

	return config.Client(ctx, newToken), nil
}

func printVerbosely(verbosity int, format string, a ...interface{}) {
	// Print only if verbosity is not higher than verbosityLevel
	// verbosityLevel is set in the config file or with --verbose
	// 0 - no output, other than critical errors
	// 1 - only list calendars being synced
	// 2 - list events being written
	// 3 - report on rows and plans
	// 4 - report on skipped template variables
	// 5 - report everything
	if verbosity <= verbosityLevel {
		fmt.Printf(format, a...)
	}
}
