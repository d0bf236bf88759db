package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind is the package ecosystem being resolved.
type Kind string

const (
	KindNPM    Kind = "npm"
	KindPython Kind = "python"
)

// ParseKind validates a user-supplied ecosystem name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindNPM, KindPython:
		return k, nil
	default:
		return "", fmt.Errorf("%w: package type %q must be 'npm' or 'python'", ErrInvalidTarget, s)
	}
}

// EnvFlavor selects the Python package manager.
type EnvFlavor string

const (
	EnvVenv  EnvFlavor = "venv"
	EnvConda EnvFlavor = "conda"
)

// ParseEnv validates an environment flavour. Empty means venv.
func ParseEnv(s string) (EnvFlavor, error) {
	switch e := EnvFlavor(strings.ToLower(strings.TrimSpace(s))); e {
	case "":
		return EnvVenv, nil
	case EnvVenv, EnvConda:
		return e, nil
	default:
		return "", fmt.Errorf("%w: environment %q must be 'venv' or 'conda'", ErrInvalidTarget, s)
	}
}

// Target identifies what a session is trying to install: one package spec,
// or every dependency listed in a file.
type Target struct {
	Kind     Kind
	Spec     string
	FileMode bool
	Env      EnvFlavor
}

// NewPackageTarget validates spec and returns a single-package target.
func NewPackageTarget(kind Kind, spec string, env EnvFlavor) (Target, error) {
	spec = strings.TrimSpace(spec)
	if err := ValidateSpec(kind, spec); err != nil {
		return Target{}, err
	}
	return Target{Kind: kind, Spec: spec, Env: env}, nil
}

// NewFileTarget builds a file-mode target, detecting the ecosystem from the file.
func NewFileTarget(path string, env EnvFlavor) (Target, error) {
	kind, err := DetectFileKind(path)
	if err != nil {
		return Target{}, err
	}
	return Target{Kind: kind, Spec: path, FileMode: true, Env: env}, nil
}

// Manager is the command-line tool used to install the target.
func (t Target) Manager() string {
	if t.Kind == KindNPM {
		return "npm"
	}
	if t.Env == EnvConda {
		return "conda"
	}
	return "pip"
}

// PackageName strips the version part from the spec. For dependency files
// it returns the spec unchanged.
func (t Target) PackageName() string {
	if t.FileMode {
		return t.Spec
	}
	return packageName(t.Spec)
}

// Describe names the target for user-facing messages.
func (t Target) Describe() string {
	if t.FileMode {
		return fmt.Sprintf("dependencies from '%s'", t.Spec)
	}
	return fmt.Sprintf("package '%s'", t.Spec)
}

// IsInstallCommand reports whether command tries to install this target,
// as opposed to incidental commands such as listing or cache cleanup.
func (t Target) IsInstallCommand(command string) bool {
	lower := strings.ToLower(command)

	if t.FileMode {
		switch t.Kind {
		case KindNPM:
			return strings.Contains(lower, "npm install") &&
				(strings.Contains(lower, "package.json") ||
					strings.Contains(lower, "yarn.lock") ||
					strings.TrimSpace(lower) == "npm install")
		case KindPython:
			return hasPythonInstallVerb(lower, t.Env) &&
				(strings.Contains(lower, "requirements.txt") ||
					strings.Contains(lower, "poetry.lock") ||
					strings.Contains(lower, "pipfile") ||
					strings.Contains(lower, strings.ToLower(filepath.Base(t.Spec))))
		}
		return false
	}

	name := strings.ToLower(t.PackageName())
	switch t.Kind {
	case KindNPM:
		return strings.Contains(lower, "npm install") &&
			(containsName(lower, name) || strings.Contains(lower, "package.json"))
	case KindPython:
		return hasPythonInstallVerb(lower, t.Env) &&
			(containsName(lower, name) || strings.Contains(lower, "requirements.txt"))
	}
	return false
}

func hasPythonInstallVerb(lower string, env EnvFlavor) bool {
	if strings.Contains(lower, "pip install") || strings.Contains(lower, "python -m pip install") {
		return true
	}
	return env == EnvConda && strings.Contains(lower, "conda install")
}

func containsName(lower, name string) bool {
	return name != "" && strings.Contains(lower, name)
}

// packageName returns the spec up to its version separator. A leading '@'
// belongs to an npm scope and is kept.
func packageName(spec string) string {
	start := 0
	if strings.HasPrefix(spec, "@") {
		start = 1
	}
	if i := strings.IndexAny(spec[start:], "@=<>!~"); i >= 0 {
		return spec[:start+i]
	}
	return spec
}

// ValidateSpec checks a single-package spec for the given ecosystem.
func ValidateSpec(kind Kind, spec string) error {
	if kind != KindNPM && kind != KindPython {
		return fmt.Errorf("%w: package type %q must be 'npm' or 'python'", ErrInvalidTarget, kind)
	}
	if spec == "" {
		return fmt.Errorf("%w: package name cannot be empty", ErrInvalidTarget)
	}

	lower := strings.ToLower(spec)
	switch kind {
	case KindNPM:
		if !strings.Contains(spec[1:], "@") {
			return fmt.Errorf("%w: npm packages must use '@' for the version (e.g. 'react@18.2.0')", ErrInvalidTarget)
		}
		if strings.Contains(lower, "node_modules") || strings.Contains(lower, "package.json") {
			return fmt.Errorf("%w: cannot install 'node_modules' or 'package.json'", ErrInvalidTarget)
		}
	case KindPython:
		if !strings.Contains(spec, "==") && !strings.Contains(spec, ">=") && !strings.Contains(spec, "<=") {
			return fmt.Errorf("%w: python packages must use '==' for an exact version or '>='/'<=' for a range (e.g. 'requests==2.31.0')", ErrInvalidTarget)
		}
		switch strings.ToLower(packageName(spec)) {
		case "pip", "setuptools":
			return fmt.Errorf("%w: cannot install 'pip' or 'setuptools' as regular packages", ErrInvalidTarget)
		}
	}
	return nil
}

// DetectFileKind infers the ecosystem from a dependency file's name, falling
// back to its content.
func DetectFileKind(path string) (Kind, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: dependency file '%s' does not exist", ErrInvalidTarget, path)
	}

	switch strings.ToLower(filepath.Base(path)) {
	case "package.json", "package-lock.json", "yarn.lock":
		return KindNPM, nil
	case "requirements.txt", "poetry.lock", "pipfile", "pipfile.lock":
		return KindPython, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: could not read '%s': %v", ErrInvalidTarget, path, err)
	}
	content := string(data)
	switch {
	case strings.Contains(content, `"dependencies"`) || strings.Contains(content, `"devDependencies"`):
		return KindNPM, nil
	case strings.Contains(content, "==") || strings.Contains(content, ">=") || strings.Contains(content, "<="):
		return KindPython, nil
	}
	return "", fmt.Errorf("%w: could not detect package manager for '%s' (supported: package.json, requirements.txt, yarn.lock, poetry.lock, Pipfile)", ErrInvalidTarget, path)
}

var commonTypos = map[string]string{
	"numby":         "numpy",
	"numpie":        "numpy",
	"numbpy":        "numpy",
	"pandsa":        "pandas",
	"panda":         "pandas",
	"scikitlearn":   "scikit-learn",
	"sklearn":       "scikit-learn",
	"matplot":       "matplotlib",
	"plotlib":       "matplotlib",
	"tensorlow":     "tensorflow",
	"tensrflow":     "tensorflow",
	"reqests":       "requests",
	"reqeusts":      "requests",
	"beautifulsoup": "beautifulsoup4",
	"bs4":           "beautifulsoup4",
	"pil":           "pillow",
}

// CorrectTypo fixes well-known misspellings of Python package names,
// keeping the version part. It reports whether a correction was made.
func CorrectTypo(spec string) (string, bool) {
	name := packageName(spec)
	fixed, ok := commonTypos[strings.ToLower(name)]
	if !ok {
		return spec, false
	}
	return fixed + spec[len(name):], true
}

var scientificPackages = map[string]bool{
	"pytorch": true, "torch": true, "torchvision": true, "tensorflow": true,
	"tf-nightly": true, "numpy": true, "scipy": true, "pandas": true,
	"scikit-learn": true, "sklearn": true, "matplotlib": true, "seaborn": true,
	"plotly": true, "bokeh": true, "jupyter": true, "ipython": true,
	"notebook": true, "jupyterlab": true, "conda": true, "anaconda": true,
	"miniconda": true,
}

// IsScientific reports whether spec names a scientific Python package,
// for which conda builds are often the easier route.
func IsScientific(spec string) bool {
	return scientificPackages[strings.ToLower(packageName(spec))]
}

func isInterpreterSpec(spec string) bool {
	lower := strings.ToLower(spec)
	return strings.HasPrefix(lower, "python==") || strings.HasPrefix(lower, "python3==")
}

func isNodeSpec(spec string) bool {
	return strings.HasPrefix(strings.ToLower(spec), "node==")
}

// Guidance explains why a target cannot be installed by its own package
// manager, e.g. a Python interpreter requested through pip. It returns ""
// for ordinary targets.
func (t Target) Guidance() string {
	if t.FileMode {
		return ""
	}
	switch {
	case isInterpreterSpec(t.Spec) && t.Kind == KindPython:
		return fmt.Sprintf("Package '%s' is invalid. Python interpreter versions cannot be installed via pip.\n"+
			"Use one of these instead (pyenv preferred):\n"+
			"  - pyenv: pyenv install 3.13.3 && pyenv global 3.13.3\n"+
			"  - macOS: brew install python@3.13\n"+
			"  - conda: conda install python=3.13\n"+
			"  - check the current interpreter: python --version", t.Spec)
	case isInterpreterSpec(t.Spec) && t.Kind == KindNPM:
		return fmt.Sprintf("Package '%s' is invalid. Python cannot be installed via npm.\n"+
			"Use one of these instead (pyenv preferred):\n"+
			"  - pyenv: pyenv install 3.13.3\n"+
			"  - macOS: brew install python@3.13\n"+
			"  - conda: conda install python=3.13", t.Spec)
	case isNodeSpec(t.Spec) && t.Kind == KindPython:
		return fmt.Sprintf("Package '%s' is invalid. Node.js cannot be installed via pip.\n"+
			"Use one of these instead:\n"+
			"  - nvm: nvm install 18.17.0\n"+
			"  - brew: brew install node@18\n"+
			"  - download from nodejs.org", t.Spec)
	}
	return ""
}
