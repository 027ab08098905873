package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/bimuz/bimuz-backend/internal/config"
	"github.com/bimuz/bimuz-backend/internal/database"
	"github.com/bimuz/bimuz-backend/internal/logger"
	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/repository"
	"github.com/bimuz/bimuz-backend/internal/service"
	"github.com/bimuz/bimuz-backend/internal/validator"
)

// bootstrapRoles are the roles this tool may create. Everyone else is
// created through the API by one of them.
var bootstrapRoles = map[string]model.Role{
	"director":  model.RoleDirector,
	"developer": model.RoleDeveloper,
}

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	employeeRepo := repository.NewEmployeeRepository(pool)
	authService := service.NewAuthService(cfg, nil, employeeRepo, nil, log)
	employeeService := service.NewEmployeeService(employeeRepo, authService, service.NewMediaService(cfg, log), cfg, log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create Employee ===")

	// Role
	fmt.Print("Enter Role (director/developer, default director): ")
	roleStr, _ := reader.ReadString('\n')
	roleStr = strings.ToLower(strings.TrimSpace(roleStr))
	if roleStr == "" {
		roleStr = "director"
	}
	role, ok := bootstrapRoles[roleStr]
	if !ok {
		fmt.Println("Error: Role must be director or developer")
		return
	}

	if n, err := employeeRepo.CountActiveByRole(ctx, role); err == nil && n > 0 {
		fmt.Printf("Note: %d active %s account(s) already exist\n", n, role)
	}

	// Full name
	fmt.Print("Enter Full Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)

	// Email
	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.ToLower(strings.TrimSpace(email))

	// Password
	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // Newline after password input
	if err != nil {
		fmt.Println("Error reading password")
		return
	}
	fmt.Print("Repeat Password: ")
	byteConfirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		return
	}
	if string(bytePassword) != string(byteConfirm) {
		fmt.Println("Error: Passwords do not match")
		return
	}

	req := model.CreateEmployeeRequest{
		Email:    email,
		FullName: name,
		Password: string(bytePassword),
		Role:     role,
	}

	v := validator.New()
	v.SetTagName("binding")
	if err := v.Struct(req); err != nil {
		for field, msg := range validator.TranslateErrors(err) {
			fmt.Printf("Error: %s: %s\n", field, msg)
		}
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	employee, err := employeeService.Create(ctx, model.RoleDeveloper, req)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create employee")
	}

	fmt.Printf("\nSuccess! %s '%s' (%s) created with ID: %d\n", employee.Role, employee.FullName, employee.Email, employee.ID)
}
