package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/ericfisherdev/gatekeep/internal/adapter/driven/hashing"
	sqliteadapter "github.com/ericfisherdev/gatekeep/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/gatekeep/internal/application"
	"github.com/ericfisherdev/gatekeep/internal/config"
	"github.com/ericfisherdev/gatekeep/internal/domain/model"
	"github.com/ericfisherdev/gatekeep/internal/domain/port/driven"
)

// readPassword is replaced in tests so no terminal is needed.
var readPassword = term.ReadPassword

// isTerminal reports whether fd is an interactive terminal.
var isTerminal = term.IsTerminal

// admin holds the stores and services the commands operate on.
type admin struct {
	db     *sqliteadapter.DB
	sites  driven.SiteCredentialStore
	roles  driven.RoleStore
	auth   *application.AuthService
	tokens *application.TokenService

	in    *bufio.Reader
	inFd  int
	inTTY bool
	out   io.Writer
}

func openAdmin(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout io.Writer) (*admin, error) {
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if _, err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, err
	}

	hasher, err := hashing.New(cfg.Hasher)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	tokens, err := application.NewTokenService(application.TokenSettings{
		SigningKey: cfg.JWTKey,
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
		TTL:        cfg.TokenTTL,
	}, sqliteadapter.NewTokenRepo(db))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	roles := sqliteadapter.NewRoleRepo(db)

	inFd, inTTY := -1, false
	if f, ok := stdin.(*os.File); ok {
		inFd = int(f.Fd())
		inTTY = isTerminal(inFd)
	}

	return &admin{
		db:     db,
		sites:  sqliteadapter.NewSiteCredentialRepo(db, cfg.SecretKey),
		roles:  roles,
		auth:   application.NewAuthService(sqliteadapter.NewUserRepo(db), roles, tokens, hasher, slog.Default()),
		tokens: tokens,
		in:     bufio.NewReader(stdin),
		inFd:   inFd,
		inTTY:  inTTY,
		out:    stdout,
	}, nil
}

func (a *admin) close() {
	if err := a.db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

func (a *admin) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "add-site":
		return a.addSite(ctx, args)
	case "enable-site":
		return a.setSiteActive(ctx, cmd, args, true)
	case "disable-site":
		return a.setSiteActive(ctx, cmd, args, false)
	case "list-sites":
		return a.listSites(ctx)
	case "add-role":
		return a.addRole(ctx, args)
	case "list-roles":
		return a.listRoles(ctx)
	case "add-user":
		return a.addUser(ctx, args)
	case "prune-tokens":
		return a.pruneTokens(ctx)
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *admin) addSite(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add-site", flag.ContinueOnError)
	fs.SetOutput(a.out)
	siteID := fs.String("id", "", "site id sent in X-Site-Id")
	generate := fs.Bool("generate", false, "generate a random secret and print it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *siteID == "" {
		return errors.New("add-site: -id is required")
	}

	var secret string
	if *generate {
		buf := make([]byte, 24)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("generate secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
	} else {
		s, err := a.readSecret("Site secret: ")
		if err != nil {
			return err
		}
		secret = s
	}
	if secret == "" {
		return errors.New("add-site: secret must not be empty")
	}

	cred, err := a.sites.Add(ctx, model.SiteCredential{
		SiteID:    *siteID,
		Secret:    secret,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "site %q added\n", cred.SiteID)
	if *generate {
		fmt.Fprintf(a.out, "secret: %s\n", secret)
	}
	return nil
}

func (a *admin) setSiteActive(ctx context.Context, cmd string, args []string, active bool) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(a.out)
	siteID := fs.String("id", "", "site id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *siteID == "" {
		return fmt.Errorf("%s: -id is required", cmd)
	}

	if err := a.sites.SetActive(ctx, *siteID, active); err != nil {
		return err
	}

	state := "disabled"
	if active {
		state = "enabled"
	}
	fmt.Fprintf(a.out, "site %q %s\n", *siteID, state)
	return nil
}

func (a *admin) listSites(ctx context.Context) error {
	sites, err := a.sites.ListAll(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SITE\tACTIVE\tCREATED")
	for _, s := range sites {
		fmt.Fprintf(tw, "%s\t%t\t%s\n", s.SiteID, s.Active, s.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func (a *admin) addRole(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add-role", flag.ContinueOnError)
	fs.SetOutput(a.out)
	name := fs.String("name", "", "role name")
	desc := fs.String("description", "", "role description")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return errors.New("add-role: -name is required")
	}

	role, err := a.roles.Add(ctx, model.Role{
		Name:        *name,
		Description: *desc,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "role %q added with id %d\n", role.Name, role.ID)
	return nil
}

func (a *admin) listRoles(ctx context.Context) error {
	roles, err := a.roles.ListAll(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tACTIVE\tDESCRIPTION")
	for _, r := range roles {
		fmt.Fprintf(tw, "%d\t%s\t%t\t%s\n", r.ID, r.Name, r.Active, r.Description)
	}
	return tw.Flush()
}

func (a *admin) addUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add-user", flag.ContinueOnError)
	fs.SetOutput(a.out)
	username := fs.String("username", "", "login name")
	email := fs.String("email", "", "email address")
	first := fs.String("first-name", "", "first name")
	last := fs.String("last-name", "", "last name")
	roleID := fs.Int64("role", 2, "role id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *email == "" {
		return errors.New("add-user: -username and -email are required")
	}

	password, err := a.readSecret("Password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("add-user: password must not be empty")
	}

	profile, err := a.auth.Register(ctx, model.Registration{
		Username:  *username,
		Password:  password,
		FirstName: *first,
		LastName:  *last,
		Email:     *email,
		RoleID:    *roleID,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "user %q created with id %s\n", profile.Username, profile.ID)
	return nil
}

func (a *admin) pruneTokens(ctx context.Context) error {
	n, err := a.tokens.PruneExpired(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d expired tokens removed\n", n)
	return nil
}

// readSecret prompts without echo on a terminal and otherwise reads one line
// from the input, so secrets can be piped in from scripts. Only the line
// ending is stripped; surrounding spaces are part of the secret.
func (a *admin) readSecret(prompt string) (string, error) {
	if a.inTTY {
		fmt.Fprint(a.out, prompt)
		b, err := readPassword(a.inFd)
		fmt.Fprintln(a.out)
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return string(b), nil
	}

	line, err := a.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read secret: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
