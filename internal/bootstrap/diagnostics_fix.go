package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	goruntime "runtime"
	"strings"
	"time"

	"ocr-studio/internal/config"
	"ocr-studio/internal/domain"
)

const installCommandTimeout = 30 * time.Minute

type installOption struct {
	manager  string
	commands [][]string
}

// InstallOrFixDiagnostic applies an OS-specific remediation for one failed diagnostic item.
func (a *App) InstallOrFixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	if a.Store == nil {
		return domain.DiagnosticReport{}, fmt.Errorf("settings store is not configured")
	}

	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	settings = config.Normalize(settings)

	settingsChanged := false
	var fixErr error

	switch id {
	case "tool_pdftoppm", "tool_tesseract", "language":
		options := installOptionsFor(goruntime.GOOS, id, settings.Language)
		a.Logger.Info().Str("item", id).Int("managers", len(options)).Msg("installing dependency")
		fixErr = runFirstSuccessfulInstall(options)
	case "temp_dir":
		settings, settingsChanged, fixErr = installOrFixTempDir(settings)
	case "output_dir":
		settings, settingsChanged, fixErr = installOrFixOutputDir(settings)
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	if settingsChanged {
		if saveErr := a.Store.Save(settings); saveErr != nil {
			report := a.refreshDiagnosticsFromSettings(settings)
			return report, fmt.Errorf("save settings after fix: %w", saveErr)
		}
	}

	report := a.refreshDiagnosticsFromSettings(settings)
	if fixErr != nil {
		return report, fixErr
	}
	return report, nil
}

// installOptionsFor lists package manager commands that provide the item.
func installOptionsFor(goos, itemID, language string) []installOption {
	pkg := func(apt, dnf, pacman, brew, choco string) []installOption {
		switch goos {
		case "windows":
			if choco == "" {
				return nil
			}
			return []installOption{
				{manager: "choco", commands: [][]string{{"choco", "install", choco, "-y"}}},
				{manager: "scoop", commands: [][]string{{"scoop", "install", choco}}},
			}
		case "darwin":
			return []installOption{
				{manager: "brew", commands: [][]string{{"brew", "install", brew}}},
			}
		default:
			return []installOption{
				{manager: "apt-get", commands: [][]string{{"apt-get", "update"}, {"apt-get", "install", "-y", apt}}},
				{manager: "dnf", commands: [][]string{{"dnf", "install", "-y", dnf}}},
				{manager: "pacman", commands: [][]string{{"pacman", "-Sy", "--noconfirm", pacman}}},
				{manager: "brew", commands: [][]string{{"brew", "install", brew}}},
			}
		}
	}

	switch itemID {
	case "tool_pdftoppm":
		return pkg("poppler-utils", "poppler-utils", "poppler", "poppler", "poppler")
	case "tool_tesseract":
		return pkg("tesseract-ocr", "tesseract", "tesseract", "tesseract", "tesseract")
	case "language":
		code := strings.TrimSpace(language)
		if code == "" {
			return nil
		}
		dnfCode := strings.ReplaceAll(code, "_", "-")
		return pkg(
			"tesseract-ocr-"+strings.ReplaceAll(code, "_", "-"),
			"tesseract-langpack-"+dnfCode,
			"tesseract-data-"+code,
			"tesseract-lang",
			"",
		)
	default:
		return nil
	}
}

func runFirstSuccessfulInstall(options []installOption) error {
	if len(options) == 0 {
		return fmt.Errorf("no install commands configured for OS %s", goruntime.GOOS)
	}

	errorsByManager := make([]string, 0, len(options))
	atLeastOneManager := false

	for _, option := range options {
		if !commandAvailable(option.manager) {
			continue
		}
		atLeastOneManager = true
		err := runInstallCommands(option.commands)
		if err == nil {
			return nil
		}
		errorsByManager = append(errorsByManager, fmt.Sprintf("%s: %v", option.manager, err))
	}

	if !atLeastOneManager {
		return fmt.Errorf("no supported package manager found for %s", goruntime.GOOS)
	}
	return errors.New(strings.Join(errorsByManager, " | "))
}

func runInstallCommands(commands [][]string) error {
	for _, command := range commands {
		if err := runCommandWithPossibleElevation(command); err != nil {
			return err
		}
	}
	return nil
}

func runCommandWithPossibleElevation(command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("empty command")
	}

	candidates := [][]string{command}
	if goruntime.GOOS == "linux" && requiresElevation(command[0]) {
		if commandAvailable("pkexec") {
			candidates = append(candidates, append([]string{"pkexec"}, command...))
		}
		if commandAvailable("sudo") {
			candidates = append(candidates, append([]string{"sudo", "-n"}, command...))
		}
	}

	attemptErrors := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		err := runCommand(candidate[0], candidate[1:]...)
		if err == nil {
			return nil
		}
		attemptErrors = append(attemptErrors, err.Error())
	}

	return errors.New(strings.Join(attemptErrors, " | "))
}

func runCommand(name string, args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), installCommandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s", formatCommand(name, args), installCommandTimeout)
	}

	trimmed := strings.TrimSpace(string(output))
	if len(trimmed) > 500 {
		trimmed = trimmed[:500] + "..."
	}
	if trimmed == "" {
		return fmt.Errorf("%s failed: %w", formatCommand(name, args), err)
	}
	return fmt.Errorf("%s failed: %w (%s)", formatCommand(name, args), err, trimmed)
}

func formatCommand(name string, args []string) string {
	parts := append([]string{name}, args...)
	return strings.Join(parts, " ")
}

func requiresElevation(manager string) bool {
	switch manager {
	case "apt-get", "dnf", "pacman":
		return true
	default:
		return false
	}
}

func commandAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// installOrFixTempDir falls back to the system temp directory when the
// configured one cannot be created.
func installOrFixTempDir(settings domain.Settings) (domain.Settings, bool, error) {
	tempDir := strings.TrimSpace(settings.TempDir)
	if tempDir == "" {
		return settings, false, nil
	}
	if err := os.MkdirAll(tempDir, 0o755); err == nil {
		return settings, false, nil
	}

	settings.TempDir = ""
	return settings, true, nil
}

func installOrFixOutputDir(settings domain.Settings) (domain.Settings, bool, error) {
	outputDir := strings.TrimSpace(settings.OutputDir)
	if outputDir == "" {
		return settings, false, nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return settings, false, fmt.Errorf("create output directory %s: %w", outputDir, err)
	}

	return settings, false, nil
}
