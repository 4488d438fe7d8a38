// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/dotnet/sdk-sub056/internal/archive"
	"github.com/dotnet/sdk-sub056/internal/channel"
	"github.com/dotnet/sdk-sub056/internal/config"
	"github.com/dotnet/sdk-sub056/internal/gate"
	"github.com/dotnet/sdk-sub056/internal/install"
	"github.com/dotnet/sdk-sub056/internal/issue"
	"github.com/dotnet/sdk-sub056/internal/manifest"
	"github.com/dotnet/sdk-sub056/internal/pin"
	"github.com/dotnet/sdk-sub056/internal/releases"
	"github.com/dotnet/sdk-sub056/internal/validate"
	"github.com/dotnet/sdk-sub056/internal/version"
	"github.com/dotnet/sdk-sub056/pkg/platform"
	"github.com/dotnet/sdk-sub056/pkg/types"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// userErrors are failures the user can fix by changing the command line,
// the config, or the pin file. Everything else exits with ExitFailure.
var userErrors = []error{
	channel.ErrInvalidChannel,
	channel.ErrChannelUnresolvable,
	channel.ErrInvalidExplicitPolicy,
	version.ErrInvalidVersion,
	install.ErrNotConcrete,
	install.ErrRelativeRoot,
	types.ErrInvalidComponent,
	types.ErrInvalidArchitecture,
	types.ErrInvalidScope,
	types.ErrInvalidFilesystemPath,
	types.ErrInvalidInstallRoot,
	platform.ErrUnsupportedPlatform,
	releases.ErrNotPublished,
	releases.ErrNoMatchingFile,
	pin.ErrInvalidPin,
	config.ErrInvalidConfig,
	config.ErrInvalidLoadOptions,
}

// issueRoutes maps error sentinels to their help page. Earlier entries win,
// so specific causes come before the stage sentinels that wrap them.
var issueRoutes = []struct {
	target error
	id     issue.Id
}{
	{channel.ErrInvalidChannel, issue.InvalidChannelId},
	{channel.ErrChannelUnresolvable, issue.ChannelUnresolvableId},
	{archive.ErrChecksumMismatch, issue.ChecksumMismatchId},
	{install.ErrExtractionFailed, issue.ExtractionFailedId},
	{validate.ErrValidationFailed, issue.ValidationFailedId},
	{manifest.ErrManifestCorrupt, issue.ManifestCorruptId},
	{gate.ErrLockAcquisition, issue.LockAcquisitionFailedId},
	{pin.ErrInvalidPin, issue.PinFileInvalidId},
	{platform.ErrUnsupportedPlatform, issue.UnsupportedPlatformId},
	{config.ErrInvalidConfig, issue.ConfigLoadFailedId},
	{releases.ErrMalformedFeed, issue.ReleaseFeedUnavailableId},
	{releases.ErrUnexpectedStatus, issue.DownloadFailedId},
	{install.ErrDownloadFailed, issue.DownloadFailedId},
	{fs.ErrPermission, issue.PermissionDeniedId},
}

// exitCodeFor classifies an error returned by a command.
func exitCodeFor(err error) types.ExitCode {
	if err == nil {
		return types.ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue == issue.ConfigLoadFailedId {
		return types.ExitUserError
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return types.ExitUserError
		}
	}
	return types.ExitFailure
}

// issueFor returns the help page for err, or 0.
func issueFor(err error) issue.Id {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		return ae.Issue
	}
	for _, r := range issueRoutes {
		if errors.Is(err, r.target) {
			return r.id
		}
	}
	return 0
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// use their own Format; other errors get the matching help hint appended.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		if ae.Issue == 0 {
			ae.Issue = issueFor(ae.Cause)
		}
		return ae.Format(verbose)
	}

	var msg strings.Builder
	msg.WriteString(err.Error())
	if verbose {
		var multi interface{ Unwrap() []error }
		if errors.As(err, &multi) {
			for _, e := range multi.Unwrap() {
				msg.WriteString("\n  - ")
				msg.WriteString(e.Error())
			}
		}
	}
	if iss := issue.Get(issueFor(err)); iss != nil {
		msg.WriteString("\n\n")
		msg.WriteString(issue.Hint(iss))
	}
	return msg.String()
}
