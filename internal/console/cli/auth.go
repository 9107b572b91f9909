package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/avetikov/ledgersync/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials and authenticates against the cloud
// identity document. When the cloud is unreachable it falls back to the
// locally cached verifier, opening a read-mostly offline session.
func (a *App) Login(ctx context.Context) error {
	identityID, err := getSimpleText(a.reader, "Enter user id", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if a.isOnline() {
		sess, err := a.auth.Authenticate(ctx, a.config.TenantID, identityID, string(password), a.config.Role)
		if err == nil {
			a.sess = sess
			fmt.Printf("Logged in as %s (%s)\n", sess.IdentityID, sess.Role)
			return nil
		}
		switch {
		case errors.Is(err, common.ErrInvalidCredential):
			fmt.Println("Invalid user id or password.")
			return err
		case errors.Is(err, common.ErrAccountDisabled):
			fmt.Println("This account is disabled.")
			return err
		case errors.Is(err, common.ErrConfiguration):
			fmt.Println("This account is not set up for console access.")
			return err
		}
		a.log.Warn(ctx, "online login failed, trying cached credentials", "error", err)
	}

	sess, err := a.auth.AuthenticateOffline(ctx, a.config.TenantID, identityID, string(password))
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredential) {
			fmt.Println("Invalid user id or password.")
		}
		return err
	}
	a.sess = sess
	fmt.Printf("Logged in as %s (%s, offline)\n", sess.IdentityID, sess.Role)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.sess = nil
	fmt.Println("Logged out.")
	return nil
}
