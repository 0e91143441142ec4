package commitmsg

import (
	"io"
	"strconv"
	"time"

	"github.com/valyala/fasttemplate"
)

const (
	placeholderOpenTagConstant          = "{"
	placeholderCloseTagConstant         = "}"
	repositoryNamePlaceholderConstant   = "repo_name"
	datePlaceholderConstant             = "date"
	datetimePlaceholderConstant         = "datetime"
	timestampPlaceholderConstant        = "timestamp"
	replacementCountPlaceholderConstant = "replacement_count"
	commandCountPlaceholderConstant     = "command_count"
	dateLayoutConstant                  = "2006-01-02"
	datetimeLayoutConstant              = "2006-01-02 15:04:05"
)

// Data supplies the values available to commit message templates.
type Data struct {
	RepositoryName   string
	Moment           time.Time
	ReplacementCount int
	CommandCount     int
	Variables        map[string]string
}

// Expand renders a commit message template. Built-in placeholders and
// operator-supplied variables are substituted; unknown placeholders are
// re-emitted literally so a typo never drops text from the message.
func Expand(messageTemplate string, data Data) string {
	return fasttemplate.ExecuteFuncString(messageTemplate, placeholderOpenTagConstant, placeholderCloseTagConstant,
		func(writer io.Writer, placeholderName string) (int, error) {
			switch placeholderName {
			case repositoryNamePlaceholderConstant:
				return io.WriteString(writer, data.RepositoryName)
			case datePlaceholderConstant:
				return io.WriteString(writer, data.Moment.Format(dateLayoutConstant))
			case datetimePlaceholderConstant:
				return io.WriteString(writer, data.Moment.Format(datetimeLayoutConstant))
			case timestampPlaceholderConstant:
				return io.WriteString(writer, strconv.FormatInt(data.Moment.Unix(), 10))
			case replacementCountPlaceholderConstant:
				return io.WriteString(writer, strconv.Itoa(data.ReplacementCount))
			case commandCountPlaceholderConstant:
				return io.WriteString(writer, strconv.Itoa(data.CommandCount))
			}
			if variableValue, variableExists := data.Variables[placeholderName]; variableExists {
				return io.WriteString(writer, variableValue)
			}
			return io.WriteString(writer, placeholderOpenTagConstant+placeholderName+placeholderCloseTagConstant)
		})
}
