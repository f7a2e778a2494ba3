package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/session"
	"github.com/Makepad-fr/tada/internal/ui"
)

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *runner) doAuthLogin(ctx context.Context, a []string) int {
	br := bufio.NewReader(r.opt.Stdin)
	var username string
	if len(a) > 0 {
		username = a[0]
	} else {
		fmt.Fprint(r.opt.Stdout, "Username: ")
		u, err := readLine(br)
		if err != nil {
			r.fail("read username: " + err.Error())
			return 1
		}
		username = u
	}
	fmt.Fprint(r.opt.Stdout, "Password: ")
	password, err := readLine(br)
	if err != nil {
		r.fail("read password: " + err.Error())
		return 1
	}
	fmt.Fprintln(r.opt.Stdout)

	res, err := r.client.Login(ctx, model.Credentials{Username: username, Password: password})
	if err != nil {
		return r.failRequest("login", err)
	}
	if err := r.session.Set(res.Token); err != nil {
		r.fail(err.Error())
		return 1
	}
	r.log.Info("logged in", "user", username)
	r.ok("logged in")
	if r.session.EnvOverride() {
		ui.Hint(r.opt.Stdout, session.EnvVar+" is set and still takes precedence over the stored token")
	}
	return 0
}

func (r *runner) doAuthLogout() int {
	err := r.session.Clear()
	if errors.Is(err, session.ErrEnvToken) {
		r.ok(err.Error())
		return 0
	}
	if err != nil {
		r.fail("logout: " + err.Error())
		return 1
	}
	r.ok("logged out")
	return 0
}

func (r *runner) doAuthStatus() int {
	info, err := r.session.Info()
	if err != nil {
		r.fail(err.Error())
		return 1
	}
	w := r.opt.Stdout
	if info == nil {
		ui.Hint(w, "not logged in")
		fmt.Fprintln(w, "Run: tada auth login")
		return 0
	}
	fmt.Fprintf(w, "source: %s\n", info.Source)
	fmt.Fprintf(w, "api: %s\n", r.client.BaseURL())
	if exp := expiry(info.Token); exp != nil {
		fmt.Fprintf(w, "expires: %s\n", exp.UTC().Format(time.RFC3339))
	} else {
		fmt.Fprintln(w, "expires: (unknown)")
	}
	fmt.Fprintln(w, "env override: "+session.EnvVar)
	return 0
}

// doAuthWhoAmI decodes a JWT locally without verifying it; opaque tokens
// print basic info.
func (r *runner) doAuthWhoAmI() int {
	info, err := r.session.Info()
	if err != nil {
		r.fail(err.Error())
		return 1
	}
	if info == nil {
		r.fail("not logged in. Run: tada auth login")
		return 2
	}
	w := r.opt.Stdout
	claims, ok := unverifiedClaims(info.Token)
	if !ok {
		fmt.Fprintln(w, "Opaque token (cannot introspect locally).")
		fmt.Fprintln(w, "source:", info.Source)
		return 0
	}
	b, err := json.MarshalIndent(claims, "", "  ")
	if err != nil {
		r.fail(err.Error())
		return 1
	}
	fmt.Fprintln(w, "JWT payload:")
	fmt.Fprintln(w, string(b))
	return 0
}

func unverifiedClaims(token string) (jwt.MapClaims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

func expiry(token string) *time.Time {
	claims, ok := unverifiedClaims(token)
	if !ok {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	return &exp.Time
}
