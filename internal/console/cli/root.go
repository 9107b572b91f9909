package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/avetikov/ledgersync/internal/record"
)

func (a *App) getStatus() string {
	s := ""
	if a.sess != nil {
		s = a.sess.IdentityID + " " + string(a.sess.Role)
		if !a.isOnline() {
			s += " offline"
		}
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root runs the console command loop. It logs the user in first and,
// when configured, starts with a full sync and a background sync ticker.
func (a *App) Root(ctx context.Context) {

	log.Println("Welcome to the distribution console (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	if err := a.Login(ctx); err != nil {
		a.log.Warn(ctx, "initial login failed", "error", err)
	}

	if a.isLoggedIn() && a.isOnline() {
		if a.config.SyncOnStartup {
			a.sync(ctx)
		}
		if a.config.AutoSyncInterval > 0 {
			go a.engine.AutoSync(ctx, *a.sess, a.config.AutoSyncInterval)
		}
	}

	for {
		fmt.Printf("ledgersync %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		if !a.isLoggedIn() {
			switch cmd {
			case "help":
				fmt.Println("Available commands: login, exit")
			case "login":
				_ = a.Login(ctx)
			case "exit", "quit":
				fmt.Println("Bye!")
				return
			default:
				fmt.Println("Unknown command:", cmd)
			}
			continue
		}

		switch cmd {
		case "help":
			fmt.Println("Available commands: sync, status, list <collection>, show <collection> <id>, add <collection>, delete <collection> <id>, logout, exit")
			fmt.Println("Collections:", collectionNames(a))
		case "sync":
			a.sync(ctx)
		case "status":
			a.status(ctx)
		case "l", "list":
			if len(args) != 1 {
				fmt.Println("Usage: list <collection>")
				continue
			}
			a.list(ctx, args[0])
		case "show":
			if len(args) != 2 {
				fmt.Println("Usage: show <collection> <id>")
				continue
			}
			a.show(ctx, args[0], args[1])
		case "add":
			if len(args) != 1 {
				fmt.Println("Usage: add <collection>")
				continue
			}
			a.add(ctx, args[0])
		case "delete":
			if len(args) != 2 {
				fmt.Println("Usage: delete <collection> <id>")
				continue
			}
			a.delete(ctx, args[0], args[1])
		case "logout":
			_ = a.Logout(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}

func collectionNames(a *App) string {
	var names []string
	for _, col := range record.CollectionsFor(a.sess.Role) {
		names = append(names, col.Name)
	}
	return strings.Join(names, ", ")
}
