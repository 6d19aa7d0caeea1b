// Package cli is a small command-line client for the eatsauth gRPC API:
// one command per invocation, passwords prompted interactively.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/eatsauth/internal/server/api"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// ErrUsage is returned for unknown commands or missing arguments.
var ErrUsage = errors.New("usage")

const usage = `commands:
  ping
  register <email> <Owner|Client|Delivery>
  login <email>
  verify <code>
  me
  edit [email=<new email>] [password]`

type App struct {
	client *api.Client
	conn   io.Closer
	token  string
	reader *bufio.Reader
	out    io.Writer
}

// NewApp dials the server at addr. token authenticates "me" and "edit".
func NewApp(addr, token string) (*App, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return newApp(conn, conn, token, os.Stdin, os.Stdout), nil
}

func newApp(cc grpc.ClientConnInterface, closer io.Closer, token string, in io.Reader, out io.Writer) *App {
	return &App{
		client: api.NewClient(cc),
		conn:   closer,
		token:  token,
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func (a *App) Close() error {
	if a.conn == nil {
		return nil
	}
	return a.conn.Close()
}

// Run executes one command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, usage)
		return ErrUsage
	}

	var err error
	switch cmd, rest := args[0], args[1:]; cmd {
	case "ping":
		err = a.ping(ctx)
	case "register":
		err = a.register(ctx, rest)
	case "login":
		err = a.login(ctx, rest)
	case "verify":
		err = a.verify(ctx, rest)
	case "me":
		err = a.me(ctx)
	case "edit":
		err = a.edit(ctx, rest)
	case "help":
		fmt.Fprintln(a.out, usage)
	default:
		fmt.Fprintln(a.out, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}

	if st, ok := status.FromError(err); ok && err != nil {
		return fmt.Errorf("%s: %s", st.Code(), st.Message())
	}
	return err
}

func (a *App) authed(ctx context.Context) (context.Context, error) {
	if a.token == "" {
		return nil, errors.New("not logged in: pass -token or set EATSAUTH_TOKEN")
	}
	return api.WithAccessToken(ctx, a.token), nil
}

func (a *App) printAccount(acc *api.Account) {
	if acc == nil {
		return
	}
	state := "unverified"
	if acc.Verified {
		state = "verified"
	}
	fmt.Fprintf(a.out, "%s %s (%s, %s)\n", acc.ID, acc.Email, acc.Role, state)
}

func (a *App) ping(ctx context.Context) error {
	resp, err := a.client.Ping(ctx, &api.PingRequest{})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, resp.Status)
	return nil
}

func (a *App) register(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: register <email> <role>", ErrUsage)
	}
	password, err := GetPassword(a.reader, "Enter password", a.out)
	if err != nil {
		return err
	}

	resp, err := a.client.CreateAccount(ctx, &api.CreateAccountRequest{Email: args[0], Password: password, Role: args[1]})
	if err != nil {
		return err
	}
	a.printAccount(resp.Account)
	fmt.Fprintln(a.out, "Check your inbox for the verification link.")
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: login <email>", ErrUsage)
	}
	password, err := GetPassword(a.reader, "Enter password", a.out)
	if err != nil {
		return err
	}

	resp, err := a.client.Login(ctx, &api.LoginRequest{Email: args[0], Password: password})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, resp.Token)
	return nil
}

func (a *App) verify(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: verify <code>", ErrUsage)
	}
	resp, err := a.client.VerifyEmail(ctx, &api.VerifyEmailRequest{Code: args[0]})
	if err != nil {
		return err
	}
	a.printAccount(resp.Account)
	return nil
}

func (a *App) me(ctx context.Context) error {
	ctx, err := a.authed(ctx)
	if err != nil {
		return err
	}
	resp, err := a.client.Me(ctx, &api.MeRequest{})
	if err != nil {
		return err
	}
	a.printAccount(resp.Account)
	return nil
}

func (a *App) edit(ctx context.Context, args []string) error {
	ctx, err := a.authed(ctx)
	if err != nil {
		return err
	}

	req := &api.EditProfileRequest{}
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "email="):
			email := strings.TrimPrefix(arg, "email=")
			req.Email = &email
		case arg == "password":
			password, err := GetPassword(a.reader, "Enter new password", a.out)
			if err != nil {
				return err
			}
			req.Password = &password
		default:
			return fmt.Errorf("%w: edit [email=<new email>] [password]", ErrUsage)
		}
	}
	if req.Email == nil && req.Password == nil {
		return fmt.Errorf("%w: nothing to change", ErrUsage)
	}

	resp, err := a.client.EditProfile(ctx, req)
	if err != nil {
		return err
	}
	a.printAccount(resp.Account)
	return nil
}
