package execshell_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/allenclove/BatchGitOps/internal/execshell"
)

const (
	testCloneMessageCaseNameConstant         = "clone"
	testPullMessageCaseNameConstant          = "pull"
	testCheckoutMessageCaseNameConstant      = "checkout"
	testCheckoutCreateMessageCaseNameConstant = "checkout_create"
	testBranchDeleteMessageCaseNameConstant  = "branch_delete"
	testResetMessageCaseNameConstant         = "reset"
	testCommitMessageCaseNameConstant        = "commit"
	testPushMessageCaseNameConstant          = "push"
	testLSRemoteMessageCaseNameConstant      = "ls_remote"
	testShellMessageCaseNameConstant         = "shell_script"
	testGenericMessageCaseNameConstant       = "generic"
)

func TestCommandMessageFormatterStartedMessages(testInstance *testing.T) {
	formatter := execshell.CommandMessageFormatter{}

	testCases := []struct {
		name            string
		command         execshell.ShellCommand
		expectedMessage string
	}{
		{
			name: testCloneMessageCaseNameConstant,
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"clone", "https://github.com/example/service.git", "/work/repos/service"}},
			},
			expectedMessage: "Cloning https://github.com/example/service.git into /work/repos/service",
		},
		{
			name: testPullMessageCaseNameConstant,
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"pull", "origin", "main"}, WorkingDirectory: "/work/repos/service"},
			},
			expectedMessage: "Pulling main from origin in /work/repos/service",
		},
		{
			name: testCheckoutMessageCaseNameConstant,
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"checkout", "main"}, WorkingDirectory: "/work/repos/service"},
			},
			expectedMessage: "Switching /work/repos/service to branch main",
		},
		{
			name: testCheckoutCreateMessageCaseNameConstant,
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"checkout", "-b", "feature/sync", "origin/feature/sync"}, WorkingDirectory: "/work/repos/service"},
			},
			expectedMessage: "Creating and switching to branch feature/sync in /work/repos/service",
		},
		{
			name: testBranchDeleteMessageCaseNameConstant,
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"branch", "-D", "feature/sync"}, WorkingDirectory: "/work/repos/service"},
			},
			expectedMessage: "Force removing local branch feature/sync in /work/repos/service",
		},
		{
			name: testResetMessageCaseNameConstant,
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"reset", "--hard", "origin/main"}, WorkingDirectory: "/work/repos/service"},
			},
			expectedMessage: "Resetting /work/repos/service to origin/main",
		},
		{
			name: testCommitMessageCaseNameConstant,
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"commit", "-m", "Automated update"}, WorkingDirectory: "/work/repos/service"},
			},
			expectedMessage: "Creating commit in /work/repos/service with message \"Automated update\"",
		},
		{
			name: testPushMessageCaseNameConstant,
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"push", "-u", "origin", "feature/sync"}, WorkingDirectory: "/work/repos/service"},
			},
			expectedMessage: "Pushing feature/sync to origin from /work/repos/service",
		},
		{
			name: testLSRemoteMessageCaseNameConstant,
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"ls-remote", "--heads", "origin", "feature/sync"}, WorkingDirectory: "/work/repos/service"},
			},
			expectedMessage: "Checking remote branch feature/sync on origin from /work/repos/service",
		},
		{
			name: testShellMessageCaseNameConstant,
			command: execshell.ShellCommand{
				Name:    execshell.CommandShell,
				Details: execshell.NewShellScriptDetails("go mod tidy", "/work/repos/service"),
			},
			expectedMessage: "Running shell command \"go mod tidy\" in /work/repos/service",
		},
		{
			name: testGenericMessageCaseNameConstant,
			command: execshell.ShellCommand{
				Name:    execshell.CommandGit,
				Details: execshell.CommandDetails{Arguments: []string{"rev-parse", "HEAD"}, WorkingDirectory: "/work/repos/service"},
			},
			expectedMessage: "Running git rev-parse HEAD (in /work/repos/service)",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedMessage, formatter.BuildStartedMessage(testCase.command))
		})
	}
}

func TestCommandMessageFormatterFailureMessages(testInstance *testing.T) {
	formatter := execshell.CommandMessageFormatter{}

	pullCommand := execshell.ShellCommand{
		Name:    execshell.CommandGit,
		Details: execshell.CommandDetails{Arguments: []string{"pull", "origin", "main"}, WorkingDirectory: "/work/repos/service"},
	}

	failureMessage := formatter.BuildFailureMessage(pullCommand, execshell.ExecutionResult{ExitCode: 1, StandardError: "merge conflict"})
	require.Equal(testInstance, "Failed to pull main from origin in /work/repos/service (exit code 1: merge conflict)", failureMessage)

	executionFailureMessage := formatter.BuildExecutionFailureMessage(pullCommand, errors.New("executable not found"))
	require.Equal(testInstance, "Unable to pull main from origin in /work/repos/service: executable not found", executionFailureMessage)
}
