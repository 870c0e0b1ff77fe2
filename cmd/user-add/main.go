package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"notebook/internal/auth"
	"notebook/internal/config"
	"notebook/internal/store"
)

func main() {
	staff := flag.Bool("staff", false, "grant the staff flag")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: user-add [-staff] <username> <email>")
		flag.PrintDefaults()
	}
	flag.Parse()
	staffSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "staff" {
			staffSet = true
		}
	})
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	username := strings.TrimSpace(flag.Arg(0))
	email := strings.TrimSpace(flag.Arg(1))
	if username == "" || email == "" {
		fmt.Fprintln(os.Stderr, "username and email must not be empty")
		os.Exit(2)
	}

	cfg := config.Load()
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := st.Init(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	existing, err := st.UserByUsername(ctx, username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if existing != nil {
		ok, err := promptYesNo(fmt.Sprintf("User %q exists. Update password? [y/N]: ", username))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "no changes made")
			return
		}
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	confirm, err := promptPassword("Confirm: ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if password != confirm {
		fmt.Fprintln(os.Stderr, "passwords do not match")
		os.Exit(1)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if existing != nil {
		if err := st.SetPassword(ctx, existing.ID, hash); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if staffSet && existing.IsStaff != *staff {
			if err := st.SetStaff(ctx, existing.ID, *staff); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			fmt.Printf("password updated for %q (staff %v)\n", username, *staff)
			return
		}
		fmt.Printf("password updated for %q\n", username)
		return
	}

	id, err := st.CreateUser(ctx, username, email, hash, *staff)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("user %q created (id %d, staff %v)\n", username, id, *staff)
}

func promptYesNo(prompt string) (bool, error) {
	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	password := strings.TrimSpace(string(raw))
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	return password, nil
}
