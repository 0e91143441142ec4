package gitrepo

import (
	"fmt"
	"strings"
)

const (
	httpsProtocolPrefixConstant     = "https://"
	httpProtocolPrefixConstant      = "http://"
	credentialSeparatorConstant     = ":"
	credentialHostDelimiterConstant = "@"
	pathSeparatorConstant           = "/"
	gitSuffixConstant               = ".git"
	remoteURLErrorTemplateConstant  = "%s: %s"
	requiredValueMessageConstant    = "value must be provided"
	invalidRemoteURLMessageConstant = "invalid remote url"
)

// RemoteURLError indicates a remote string could not be interpreted.
type RemoteURLError struct {
	Input   string
	Message string
}

// Error describes the failure.
func (remoteError RemoteURLError) Error() string {
	return fmt.Sprintf(remoteURLErrorTemplateConstant, remoteError.Input, remoteError.Message)
}

// RepositoryNameFromURL derives the repository directory name from a remote URL.
// The final path segment is used with any trailing .git suffix removed.
func RepositoryNameFromURL(remoteURL string) (string, error) {
	trimmedRemote := strings.TrimSpace(remoteURL)
	if len(trimmedRemote) == 0 {
		return "", RemoteURLError{Input: remoteURL, Message: requiredValueMessageConstant}
	}

	trimmedRemote = strings.TrimRight(trimmedRemote, pathSeparatorConstant)
	lastSeparatorIndex := strings.LastIndex(trimmedRemote, pathSeparatorConstant)
	lastSegment := trimmedRemote
	if lastSeparatorIndex >= 0 {
		lastSegment = trimmedRemote[lastSeparatorIndex+1:]
	}

	repositoryName := strings.TrimSuffix(lastSegment, gitSuffixConstant)
	if len(repositoryName) == 0 {
		return "", RemoteURLError{Input: remoteURL, Message: invalidRemoteURLMessageConstant}
	}

	return repositoryName, nil
}

// InjectCredentials embeds a token, and optionally an account, into an HTTP(S)
// remote URL so git can authenticate without prompting. The token alone yields
// token@host userinfo; an account yields account:token@host. Non-HTTP(S)
// remotes, remotes already carrying userinfo, and empty tokens leave the URL
// unchanged.
func InjectCredentials(remoteURL string, accountName string, accessToken string) string {
	trimmedRemote := strings.TrimSpace(remoteURL)
	trimmedAccount := strings.TrimSpace(accountName)
	trimmedToken := strings.TrimSpace(accessToken)

	if len(trimmedToken) == 0 {
		return trimmedRemote
	}
	if !strings.HasPrefix(trimmedRemote, httpsProtocolPrefixConstant) && !strings.HasPrefix(trimmedRemote, httpProtocolPrefixConstant) {
		return trimmedRemote
	}
	if strings.Contains(trimmedRemote, credentialHostDelimiterConstant) {
		return trimmedRemote
	}

	protocolPrefix := httpsProtocolPrefixConstant
	if strings.HasPrefix(trimmedRemote, httpProtocolPrefixConstant) {
		protocolPrefix = httpProtocolPrefixConstant
	}

	userinfo := trimmedToken
	if len(trimmedAccount) > 0 {
		userinfo = trimmedAccount + credentialSeparatorConstant + trimmedToken
	}

	remainder := strings.TrimPrefix(trimmedRemote, protocolPrefix)
	return protocolPrefix + userinfo + credentialHostDelimiterConstant + remainder
}
