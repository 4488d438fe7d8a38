// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"
)

type Id int

const (
	InvalidChannelId Id = iota + 1
	ChannelUnresolvableId
	ReleaseFeedUnavailableId
	DownloadFailedId
	ChecksumMismatchId
	ExtractionFailedId
	ValidationFailedId
	ManifestCorruptId
	LockAcquisitionFailedId
	ConfigLoadFailedId
	PinFileInvalidId
	UnsupportedPlatformId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	slug     string      // stable name accepted by 'dotnetup explain'
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) Slug() string {
	return i.slug
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

const releasesDocs HttpLink = "https://github.com/dotnet/core/blob/main/release-notes/releases-index.json"

var (
	render = glamour.Render

	invalidChannelIssue = &Issue{
		id:   InvalidChannelId,
		slug: "invalid-channel",
		mdMsg: `
# Channel not recognised

A channel selects which version to install. These forms are accepted:

| Form | Example | Meaning |
|---|---|---|
| keyword | ` + "`latest`, `lts`, `sts`, `preview`" + ` | newest release of that kind |
| major | ` + "`9`" + ` | newest 9.x release |
| major.minor | ` + "`8.0`" + ` | newest 8.0 release |
| feature band | ` + "`9.0.1xx`" + ` | newest SDK in the 100-199 band |
| exact | ` + "`9.0.102`" + ` | that version only |

## Things you can try:
- Check the channel for typos
- Run ` + "`dotnetup resolve <channel>`" + ` to see what it selects`,
		extLinks: []HttpLink{releasesDocs},
	}

	channelUnresolvableIssue = &Issue{
		id:   ChannelUnresolvableId,
		slug: "channel-unresolvable",
		mdMsg: `
# No release matches the channel

The channel is well formed but the release index has no version for it and
this component. Feature bands only apply to SDKs, and preview releases are
selected only by the ` + "`preview`" + ` keyword or an exact version.

## Things you can try:
- Run ` + "`dotnetup resolve <channel> --component <component>`" + `
- Use a broader channel such as ` + "`8.0`" + ` or ` + "`lts`" + `
- Set ` + "`resolve.explicit_policy: \"accept-unlisted\"`" + ` to install an unlisted exact version`,
		extLinks: []HttpLink{releasesDocs},
	}

	releaseFeedUnavailableIssue = &Issue{
		id:   ReleaseFeedUnavailableId,
		slug: "release-feed",
		mdMsg: `
# Release feed unavailable

dotnetup could not read the release index and had no cached copy to fall
back on.

## Things you can try:
- Check your network connection and proxy settings
- Point ` + "`releases.index_url`" + ` at a mirror
- Install offline with ` + "`--index-file`" + ` and a saved index`,
		extLinks: []HttpLink{releasesDocs},
	}

	downloadFailedIssue = &Issue{
		id:   DownloadFailedId,
		slug: "download-failed",
		mdMsg: `
# Download failed

The archive for the requested version could not be downloaded. Nothing was
written to the install root.

## Things you can try:
- Retry the command; completed installs are skipped
- Check that the version publishes a file for your platform and architecture`,
	}

	checksumMismatchIssue = &Issue{
		id:   ChecksumMismatchId,
		slug: "checksum-mismatch",
		mdMsg: `
# Archive checksum mismatch

The downloaded archive does not match the SHA-512 hash published in the
release feed. It was discarded before extraction.

## Things you can try:
- Retry; a proxy or a truncated transfer is the usual cause
- Clear the feed cache if the index was edited by hand`,
	}

	extractionFailedIssue = &Issue{
		id:   ExtractionFailedId,
		slug: "extraction-failed",
		mdMsg: `
# Archive extraction failed

The archive was rejected while unpacking. Entries that escape the target
directory, links pointing outside it, and archives above the size limits are
refused. Partially extracted files were removed.`,
	}

	validationFailedIssue = &Issue{
		id:   ValidationFailedId,
		slug: "validation-failed",
		mdMsg: `
# Installed files failed validation

After extraction the component layout did not match the expected shape (host
executable, framework or SDK directory, ` + "`.version`" + ` stamp). Files added by
this install were rolled back and the manifest was not changed.`,
	}

	manifestCorruptIssue = &Issue{
		id:   ManifestCorruptId,
		slug: "manifest-corrupt",
		mdMsg: `
# Install manifest is unreadable

The manifest that records what dotnetup installed could not be parsed. dotnetup
refuses to overwrite it so no history is lost.

## Things you can try:
- Inspect the file named in the error
- Move it aside; dotnetup starts a new manifest on the next install`,
	}

	lockAcquisitionFailedIssue = &Issue{
		id:   LockAcquisitionFailedId,
		slug: "lock",
		mdMsg: `
# Could not acquire the install lock

Another dotnetup process holds the lock, or the lock directory is not
writable. Installs wait for each other; this error means waiting was
interrupted or the lock file could not be opened.

## Things you can try:
- Wait for the other dotnetup process to finish
- Check permissions on ` + "`lock_dir`",
	}

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		slug: "config",
		mdMsg: `
# Configuration could not be loaded

## Things you can try:
- Run ` + "`dotnetup config show`" + ` to print the effective configuration
- Check ` + "`DOTNETUP_*`" + ` environment variables
- Validate the file against the documented keys:

~~~cue
install_root: "/opt/dotnet"
scope:        "user"
releases: cache_ttl: "6h"
install: parallelism: 2
~~~`,
	}

	pinFileInvalidIssue = &Issue{
		id:   PinFileInvalidId,
		slug: "pin-file",
		mdMsg: `
# dotnetup.toml is invalid

The project pin file selects the channels ` + "`dotnetup install`" + ` uses when none is
given.

~~~toml
[sdk]
channel = "9.0.1xx"

[[runtime]]
channel = "8.0"
component = "aspnetcore"
~~~`,
	}

	unsupportedPlatformIssue = &Issue{
		id:   UnsupportedPlatformId,
		slug: "platform",
		mdMsg: `
# Platform not supported

No .NET build exists for this operating system and architecture pair.

## Things you can try:
- Pass ` + "`--arch`" + ` to install a build for another architecture`,
	}

	permissionDeniedIssue = &Issue{
		id:   PermissionDeniedId,
		slug: "permission",
		mdMsg: `
# Permission denied

dotnetup could not write to the install root or the manifest directory.

## Things you can try:
- Use ` + "`--scope user`" + ` to install under your home directory
- Run with elevated privileges for ` + "`--scope machine`",
	}

	issues = map[Id]*Issue{
		invalidChannelIssue.Id():         invalidChannelIssue,
		channelUnresolvableIssue.Id():    channelUnresolvableIssue,
		releaseFeedUnavailableIssue.Id(): releaseFeedUnavailableIssue,
		downloadFailedIssue.Id():         downloadFailedIssue,
		checksumMismatchIssue.Id():       checksumMismatchIssue,
		extractionFailedIssue.Id():       extractionFailedIssue,
		validationFailedIssue.Id():       validationFailedIssue,
		manifestCorruptIssue.Id():        manifestCorruptIssue,
		lockAcquisitionFailedIssue.Id():  lockAcquisitionFailedIssue,
		configLoadFailedIssue.Id():       configLoadFailedIssue,
		pinFileInvalidIssue.Id():         pinFileInvalidIssue,
		unsupportedPlatformIssue.Id():    unsupportedPlatformIssue,
		permissionDeniedIssue.Id():       permissionDeniedIssue,
	}
)

// Values returns every issue ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, id := range slices.Sorted(maps.Keys(issues)) {
		out = append(out, issues[id])
	}
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}

// Lookup returns the issue with the given slug.
func Lookup(slug string) (*Issue, bool) {
	for iss := range maps.Values(issues) {
		if iss.slug == slug {
			return iss, true
		}
	}
	return nil, false
}
