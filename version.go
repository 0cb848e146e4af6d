package testlabagent

// Version is stamped into every submission's client metadata under the
// "version" key unless the caller overrides ClientConfig.ClientVersion.
const Version = "0.3.0"
