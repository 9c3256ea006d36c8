package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/quantmind-br/installer-intel/internal/config"
)

// PlanStem precede a extensão dos planos gerados em lote.
const PlanStem = ".installplan"

// Resolver centraliza caminhos padrão do installer-intel.
// Ele calcula diretórios base a partir de HOME e da configuração.
type Resolver struct {
	homeDir string
	cfg     *config.Config
}

// NewResolver cria um Resolver usando o HOME do usuário atual.
func NewResolver(cfg *config.Config) *Resolver {
	homeDir, _ := os.UserHomeDir()
	return &Resolver{
		homeDir: homeDir,
		cfg:     cfg,
	}
}

// NewResolverWithHome cria um Resolver com homeDir explícito (útil para testes).
func NewResolverWithHome(cfg *config.Config, homeDir string) *Resolver {
	return &Resolver{
		homeDir: homeDir,
		cfg:     cfg,
	}
}

// HomeDir retorna o diretório HOME resolvido.
func (r *Resolver) HomeDir() string {
	return r.homeDir
}

// ConfigDir retorna ~/.config/installer-intel.
func (r *Resolver) ConfigDir() string {
	return filepath.Join(r.homeDir, ".config", config.AppName)
}

// DataDir retorna o diretório de dados, respeitando cfg.Paths.DataDir se definido.
func (r *Resolver) DataDir() string {
	if r.cfg != nil && r.cfg.Paths.DataDir != "" {
		return r.cfg.Paths.DataDir
	}
	return filepath.Join(r.homeDir, ".local", "share", config.AppName)
}

// DBFile retorna o caminho do banco de histórico.
func (r *Resolver) DBFile() string {
	if r.cfg != nil && r.cfg.Paths.DBFile != "" {
		return r.cfg.Paths.DBFile
	}
	return filepath.Join(r.DataDir(), "history.db")
}

// LogFile retorna o caminho do log rotativo.
func (r *Resolver) LogFile() string {
	if r.cfg != nil && r.cfg.Paths.LogFile != "" {
		return r.cfg.Paths.LogFile
	}
	return filepath.Join(r.DataDir(), config.AppName+".log")
}

// DefaultPlanPath retorna o destino padrão do plano (installplan.json).
func (r *Resolver) DefaultPlanPath() string {
	if r.cfg != nil && r.cfg.Output.DefaultPath != "" {
		return r.cfg.Output.DefaultPath
	}
	return "installplan.json"
}

// BatchPlanPath retorna <outDir>/<nome>.installplan.<ext> para um instalador.
// O nome mantém a extensão original, então setup.exe e setup.msi não colidem.
func (r *Resolver) BatchPlanPath(outDir, installerPath, ext string) string {
	name := BaseName(installerPath)
	if ext == "" {
		ext = "json"
	}
	return filepath.Join(outDir, name+PlanStem+"."+strings.TrimPrefix(ext, "."))
}

// BaseName retorna o último elemento do caminho aceitando separadores
// Windows e POSIX, para que caminhos Windows gerem o mesmo nome em qualquer host.
func BaseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
