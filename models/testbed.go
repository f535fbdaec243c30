package models

// Testbed is the root of a deployment file: a set of service descriptors
// plus the named volumes they may reference.
type Testbed struct {
	Services map[string]Service    `yaml:"services"`
	Volumes  map[string]VolumeSpec `yaml:"volumes,omitempty"`
}

// VolumeSpec declares a named volume. An empty spec is valid and common.
type VolumeSpec struct {
	Driver     string            `yaml:"driver,omitempty"`
	DriverOpts map[string]string `yaml:"driver_opts,omitempty"`
}

type ServiceRole string

const (
	ServiceRoleService ServiceRole = "service" // long-running
	ServiceRoleRunner  ServiceRole = "runner"  // run to completion, exit status matters
)

// Service describes one deployable container: its image, the services it
// must start after, and its runtime bindings.
type Service struct {
	// Required
	Image string `yaml:"image"`

	// Overrides the deployment-scoped container name
	ContainerName string `yaml:"container_name,omitempty"`

	// service | runner
	Role ServiceRole `yaml:"role,omitempty"`

	// Dependency graph (keys reference other services)
	DependsOn []string `yaml:"depends_on,omitempty"`

	// Host device passthrough, "host[:container[:permissions]]"
	Devices []string `yaml:"devices,omitempty"`

	// "source:target[:mode]"; source is a host path or a declared volume
	Volumes []string `yaml:"volumes,omitempty"`

	// Mapping or list form; bare list entries forward the host value
	Environment Environment `yaml:"environment,omitempty"`

	// Published ports, "[host-ip:][host:]container[/proto]"
	Ports []string `yaml:"ports,omitempty"`

	// Container-only ports, "container[/proto]"
	Expose []string `yaml:"expose,omitempty"`

	// Static resource ceilings
	Resources *Resources `yaml:"resources,omitempty"`

	// Interactive session flags
	StdinOpen bool `yaml:"stdin_open,omitempty"`
	Tty       bool `yaml:"tty,omitempty"`

	Privileged bool              `yaml:"privileged,omitempty"`
	Labels     map[string]string `yaml:"labels,omitempty"`
}
