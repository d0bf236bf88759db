package tools

import "strings"

// packageManagementPatterns are the install, update and remove forms of the
// package managers we know. Matching is a case-insensitive substring test.
var packageManagementPatterns = []string{
	// install
	"npm install", "yarn install", "pnpm install", "pip install",
	"python -m pip install", "pip3 install", "apt install", "apt-get install",
	"yum install", "dnf install", "brew install", "snap install",
	"flatpak install", "cargo install", "go install", "gem install",
	"composer install", "maven install", "gradle install", "choco install",
	"scoop install", "winget install", "pacman -s", "zypper install",
	"emerge", "nix-env -i", "guix install", "spack install",
	"conda install", "poetry install", "pipenv install", "pyenv install", "nvm install",

	// update
	"npm update", "yarn upgrade", "pnpm update", "apt update", "apt-get update",
	"yum update", "dnf update", "brew update", "snap refresh", "flatpak update",
	"cargo update", "go get -u", "gem update", "composer update",
	"maven versions:use-latest-versions", "choco upgrade", "scoop update",
	"winget upgrade", "zypper update", "nix-env -u", "guix upgrade",
	"spack update", "conda update",

	// remove
	"npm uninstall", "npm remove", "yarn remove", "pnpm remove", "pip uninstall",
	"python -m pip uninstall", "pip3 uninstall", "apt remove", "apt-get remove",
	"yum remove", "dnf remove", "brew uninstall", "snap remove",
	"flatpak uninstall", "cargo uninstall", "go clean", "gem uninstall",
	"composer remove", "maven dependency:purge-local-repository",
	"choco uninstall", "scoop uninstall", "winget uninstall", "pacman -r",
	"zypper remove", "nix-env -e", "guix remove", "spack uninstall",
	"conda remove", "conda uninstall",
}

// IsPackageManagement reports whether command installs, updates or removes
// packages through a known package manager.
func IsPackageManagement(command string) bool {
	lower := strings.ToLower(command)
	for _, pattern := range packageManagementPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
