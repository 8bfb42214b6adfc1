// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	EngineNotFoundId Id = iota + 1
	ForgefileNotFoundId
	ForgefileParseErrorId
	TargetNotFoundId
	UnknownTripleId
	BaseImageUnavailableId
	IndexRefreshFailedId
	PackageInstallFailedId
	ProvisionTimeoutId
	ConfigLoadFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // project documentation links
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
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
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	engineNotFoundIssue = &Issue{
		id: EngineNotFoundId,
		mdMsg: `
# Container engine not found!

Provisioning needs a container engine but none is available.

## Supported container engines:
- **Docker**
- **Podman** (rootless works fine)

## Things you can try:
- Install Docker:
  - https://docs.docker.com/get-docker/

- Install Podman:
  - Linux: ` + "`sudo apt install podman`" + ` or ` + "`sudo dnf install podman`" + `
  - macOS: ` + "`brew install podman`" + `

- Configure your preferred engine in ~/.config/crossforge/config.cue:
~~~cue
container_engine: "docker"  // or "podman"
~~~`,
	}

	forgefileNotFoundIssue = &Issue{
		id: ForgefileNotFoundId,
		mdMsg: `
# No forgefile found!

We searched for a forgefile but couldn't find one.

## Search locations (in order of precedence):
1. The path given with --file
2. forgefile.cue in the current directory
3. The path configured in your config file

## Things you can try:
- Create a starter forgefile in your current directory:
~~~
$ crossforge init
~~~

- Or point at an existing one:
~~~
$ crossforge provision --file /path/to/forgefile.cue <target>
~~~`,
	}

	forgefileParseErrorIssue = &Issue{
		id: ForgefileParseErrorId,
		mdMsg: `
# Failed to parse forgefile!

Your forgefile contains syntax errors or invalid configuration.

## Common issues:
- Invalid CUE syntax (missing quotes, braces, etc.)
- Unknown field names
- An empty packages list
- An unpinned base_image (a bare name like "ubuntu" with no tag)

## Things you can try:
- Check the error message above for the specific field
- Validate your CUE syntax using the cue command-line tool

## Example of a valid target definition:
~~~cue
targets: [
	{
		name:          "arm64"
		base_image:    "ubuntu:jammy"
		target_triple: "aarch64-linux-gnu"
		packages: [
			"g++-aarch64-linux-gnu",
			"libc6-dev-arm64-cross",
		]
	},
]
~~~`,
	}

	targetNotFoundIssue = &Issue{
		id: TargetNotFoundId,
		mdMsg: `
# Target not found!

The target you named does not exist in the forgefile.

## Things you can try:
- List the targets the forgefile defines:
~~~
$ crossforge targets
~~~

- Check for typos in the target name`,
	}

	unknownTripleIssue = &Issue{
		id: UnknownTripleId,
		mdMsg: `
# Unknown target triple!

The target_triple in your forgefile is not one we know how to map to a
Debian cross toolchain.

## Things you can try:
- List the supported triples:
~~~
$ crossforge targets --supported
~~~

- Check the spelling; triples look like ` + "`aarch64-linux-gnu`" + `, not
  ` + "`arm64-linux-gnu`" + ``,
	}

	baseImageUnavailableIssue = &Issue{
		id: BaseImageUnavailableId,
		mdMsg: `
# Base image unavailable!

The pinned base image could not be resolved or pulled.

## Common causes:
- A typo in the image name or tag
- The registry is unreachable (network, VPN, proxy)
- The image requires authentication

## Things you can try:
- Pull the image by hand to see the engine's own error:
~~~
$ docker pull ubuntu:jammy
~~~

- Check the base_image value in your forgefile
- Log in to the registry if the image is private`,
	}

	indexRefreshFailedIssue = &Issue{
		id: IndexRefreshFailedId,
		mdMsg: `
# Package index refresh failed!

The package index could not be refreshed inside the environment, even
after the automatic retry.

## Common causes:
- Archive mirrors temporarily out of sync
- No network access from inside containers (proxy, DNS)
- A base image whose release has been archived

## Things you can try:
- Re-run the provisioning; mirror hiccups usually clear quickly
- Check container networking:
~~~
$ docker run --rm ubuntu:jammy apt-get update
~~~

- For end-of-life releases, switch the base_image to a supported tag`,
	}

	packageInstallFailedIssue = &Issue{
		id: PackageInstallFailedId,
		mdMsg: `
# Package install failed!

One of the requested packages could not be installed. Install failures
are never retried: they indicate a missing package or a dependency
conflict, not a transient error.

## Things you can try:
- Check the failing package named in the error for typos
- Verify the package exists for your base image's release:
~~~
$ docker run --rm ubuntu:jammy bash -c "apt-get update -q && apt-cache show <package>"
~~~

- Cross toolchain packages are release-specific; a package available on
  one Ubuntu release may not exist on another`,
	}

	provisionTimeoutIssue = &Issue{
		id: ProvisionTimeoutId,
		mdMsg: `
# Provisioning timed out!

A provisioning step exceeded the configured deadline. Nothing from the
interrupted run is kept.

## Things you can try:
- Raise the deadline:
~~~
$ crossforge provision --timeout 30m <target>
~~~

- Check your network; image pulls and package downloads dominate the
  run time
- Re-run: a completed run is cached, so only the failed work repeats`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the crossforge configuration file.

## Configuration file locations:
- Linux: ~/.config/crossforge/config.cue
- macOS: ~/Library/Application Support/crossforge/config.cue
- Windows: %APPDATA%\crossforge\config.cue

## Things you can try:
- Create a default configuration:
~~~
$ crossforge config init
~~~

- Check the configuration syntax
- Remove the config file to use defaults

## Example configuration:
~~~cue
container_engine: "docker"

provision: {
	strategy: "steps"
	timeout:  "15m"
}

ui: {
	color_scheme: "auto"
	verbose:      false
}
~~~`,
	}

	issues = map[Id]*Issue{
		engineNotFoundIssue.Id():       engineNotFoundIssue,
		forgefileNotFoundIssue.Id():    forgefileNotFoundIssue,
		forgefileParseErrorIssue.Id():  forgefileParseErrorIssue,
		targetNotFoundIssue.Id():       targetNotFoundIssue,
		unknownTripleIssue.Id():        unknownTripleIssue,
		baseImageUnavailableIssue.Id(): baseImageUnavailableIssue,
		indexRefreshFailedIssue.Id():   indexRefreshFailedIssue,
		packageInstallFailedIssue.Id(): packageInstallFailedIssue,
		provisionTimeoutIssue.Id():     provisionTimeoutIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
