package resolver

import "fmt"

const replanFocus = `Analyze these errors and provide ONLY executable %[1]s commands to fix the issues. Focus on:
1. Version conflicts - suggest removing conflicting packages before installing
2. Invalid package names - if 'No matching distribution found', suggest correct alternatives
3. Missing system dependencies (headers, libraries, compilers)
4. Package manager configuration issues
5. Build environment problems

For version conflicts, ALWAYS suggest uninstalling conflicting packages first.`

// InitialPrompt asks the oracle for the plain installation command only;
// escalation is left to replanning.
func InitialPrompt(t Target) string {
	pm := t.Manager()
	if t.FileMode {
		return fmt.Sprintf("Generate the BASIC installation command for %s file '%s' using %s. "+
			"Start with the standard installation command only. "+
			"Do NOT include cache clearing, purging, or force reinstall commands - these will be used only if the basic installation fails. "+
			"Provide ONLY the basic executable command.",
			t.Kind, t.Spec, pm)
	}
	return fmt.Sprintf("Generate the BASIC installation command for %s package '%s' using %s. "+
		"Start with the standard installation command only (e.g., '%s install %s'). "+
		"Do NOT include cache clearing, purging, upgrade pip, or force reinstall commands - these will be used only if the basic installation fails. "+
		"Provide ONLY the basic executable command.%s",
		t.Kind, t.Spec, pm, pm, t.Spec, upfrontNote(t))
}

// upfrontNote steers the first answer away from known dead ends.
func upfrontNote(t Target) string {
	switch {
	case t.Kind == KindPython && isInterpreterSpec(t.Spec):
		return fmt.Sprintf("\n\nWARNING: '%s' is NOT a pip package. Python interpreter versions must be installed using system package managers:\n"+
			"- pyenv: pyenv install 3.13.3 && pyenv global 3.13.3 (RECOMMENDED)\n"+
			"- macOS: brew install python@3.13\n"+
			"- conda: conda install python=3.13\n\n"+
			"Generate system installation commands instead of pip commands.", t.Spec)
	case t.Kind == KindPython && isNodeSpec(t.Spec):
		return fmt.Sprintf("\n\nWARNING: '%s' is NOT a pip package. Node.js must be installed using:\n"+
			"- nvm: nvm install 18.17.0\n"+
			"- brew: brew install node@18\n\n"+
			"Generate Node.js installation commands instead of pip commands.", t.Spec)
	case t.Kind == KindNPM && isInterpreterSpec(t.Spec):
		return fmt.Sprintf("\n\nWARNING: '%s' is NOT an npm package. Python must be installed using:\n"+
			"- pyenv: pyenv install 3.13.3 (RECOMMENDED)\n"+
			"- macOS: brew install python@3.13\n"+
			"- conda: conda install python=3.13\n\n"+
			"Generate Python installation commands instead of npm commands.", t.Spec)
	case t.Kind == KindPython && IsScientific(t.Spec):
		return ""
	case t.Kind == KindPython && t.Env == EnvConda:
		return fmt.Sprintf("\n\nNOTE: Using conda environment as specified:\n- conda install %s", t.PackageName())
	case t.Kind == KindPython:
		return fmt.Sprintf("\n\nNOTE: Using pip (default) for Python packages:\n- pip install %s", t.PackageName())
	}
	return ""
}

// ReplanPrompt hands the oracle the accumulated errors and asks for
// corrective commands only.
func ReplanPrompt(t Target, history ErrorHistory) string {
	pm := t.Manager()
	focus := fmt.Sprintf(replanFocus, pm)
	closing := fmt.Sprintf("Provide ONLY %s executable commands, one per line, NO explanations. Do NOT suggest alternative package managers.", pm)

	if t.FileMode {
		return fmt.Sprintf("The following errors occurred while trying to install dependencies from '%s' (%s) using %s:\n\n%s\n\n%s\n%s%s",
			t.Spec, t.Kind, pm, history.String(), focus, closing, invalidSuggestions(t))
	}

	envNote := ""
	if t.Kind == KindPython {
		if t.Env == EnvConda {
			envNote = "\nUsing conda environment as specified by user."
		} else {
			envNote = "\nUsing pip environment as specified by user (default)."
		}
	}
	return fmt.Sprintf("The following errors occurred while trying to install package '%s' (%s) using %s:\n\n%s\n\n%s\n"+
		"For invalid packages like 'python==X.X.X', suggest system installation methods instead.%s\n%s%s",
		t.Spec, t.Kind, pm, history.String(), focus, envNote, closing, invalidSuggestions(t))
}

// invalidSuggestions adds target-specific alternatives to a replan prompt.
func invalidSuggestions(t Target) string {
	name := t.PackageName()
	if t.FileMode {
		name = "-r " + t.Spec
		if t.Env == EnvConda {
			name = "--file " + t.Spec
		}
	}
	switch t.Kind {
	case KindPython:
		switch {
		case isInterpreterSpec(t.Spec):
			return "\n\nDETECTED INVALID PACKAGE: Python interpreter versions cannot be installed via pip. Use system package managers instead:\n" +
				"- conda: conda install python=3.13 (RECOMMENDED)\n" +
				"- pyenv: pyenv install 3.13.3 && pyenv global 3.13.3\n" +
				"- macOS: brew install python@3.13"
		case isNodeSpec(t.Spec):
			return "\n\nDETECTED INVALID PACKAGE: Node.js cannot be installed via pip. Use:\n" +
				"- nvm: nvm install 18.17.0\n" +
				"- brew: brew install node@18\n" +
				"- Download from nodejs.org"
		case t.Env == EnvConda && IsScientific(t.Spec) && !t.FileMode:
			return fmt.Sprintf("\n\nSUGGESTION: Try conda alternatives:\n- conda install %s\n- conda install -c conda-forge %s", name, name)
		case t.Env == EnvConda:
			return fmt.Sprintf("\n\nSUGGESTION: Try conda alternatives:\n- conda install %s", name)
		default:
			return fmt.Sprintf("\n\nSUGGESTION: Try pip alternatives:\n- pip install %s\n- pip install --no-cache-dir %s", name, name)
		}
	case KindNPM:
		if isInterpreterSpec(t.Spec) {
			return "\n\nDETECTED INVALID PACKAGE: Python cannot be installed via npm. Use:\n" +
				"- conda: conda install python=3.13 (RECOMMENDED)\n" +
				"- pyenv: pyenv install 3.13.3\n" +
				"- macOS: brew install python@3.13"
		}
	}
	return ""
}
