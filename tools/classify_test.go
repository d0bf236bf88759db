package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPackageManagement(t *testing.T) {
	managed := []string{
		"pip install requests==2.31.0",
		"python -m pip install --upgrade pip",
		"PIP UNINSTALL -y urllib3",
		"npm install express@4.18.2",
		"npm uninstall lodash",
		"conda install -c conda-forge numpy",
		"brew install python@3.13",
		"sudo apt-get install libssl-dev",
		"pacman -Syu",
	}
	for _, cmd := range managed {
		assert.True(t, IsPackageManagement(cmd), cmd)
	}

	plain := []string{
		"pip show requests",
		"npm list express",
		"mkdir -p build",
		"find . -name '*.pyc' -delete",
		"conda list numpy",
	}
	for _, cmd := range plain {
		assert.False(t, IsPackageManagement(cmd), cmd)
	}
}
