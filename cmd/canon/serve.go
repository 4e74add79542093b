package main

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	canonmcp "github.com/histrank/canon/internal/mcp"
)

func runServe(args []string) error {
	flags, _, err := splitFlags(args, nil)
	if err != nil {
		return err
	}

	cfg, err := resolveSettings(flags)
	if err != nil {
		return err
	}
	compounds, err := loadCompounds(cfg)
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	srv := canonmcp.NewServer(canonmcp.ServerConfig{
		Store:     s,
		Compounds: compounds,
		Version:   version,
	})

	if err := server.ServeStdio(srv); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
