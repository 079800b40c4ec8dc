package config

import "sort"

// Merge combines two configs, with values set in override taking precedence.
// Query options are merged by name.
func Merge(base, override *Config) *Config {
	result := *base
	defaults := Default()

	mergeString := func(dst *string, value, def string) {
		if value != "" && value != def {
			*dst = value
		}
	}

	mergeString(&result.Client.Endpoint, override.Client.Endpoint, defaults.Client.Endpoint)
	mergeString(&result.Client.BaseWait, override.Client.BaseWait, defaults.Client.BaseWait)
	mergeString(&result.Client.Timeout, override.Client.Timeout, defaults.Client.Timeout)
	mergeString(&result.Client.View, override.Client.View, defaults.Client.View)
	mergeString(&result.Client.MetadataExtraction, override.Client.MetadataExtraction, defaults.Client.MetadataExtraction)
	if override.Client.MaxRetries != defaults.Client.MaxRetries && override.Client.MaxRetries != 0 {
		result.Client.MaxRetries = override.Client.MaxRetries
	}
	if override.Client.PageLength != defaults.Client.PageLength && override.Client.PageLength != 0 {
		result.Client.PageLength = override.Client.PageLength
	}

	mergeString(&result.Server.Addr, override.Server.Addr, defaults.Server.Addr)
	mergeString(&result.Server.TransactionTimeLimit, override.Server.TransactionTimeLimit, defaults.Server.TransactionTimeLimit)
	if override.Server.Storage.Backend != "" && override.Server.Storage != defaults.Server.Storage {
		result.Server.Storage = override.Server.Storage
	}
	if override.Server.MaxPageLength != defaults.Server.MaxPageLength && override.Server.MaxPageLength != 0 {
		result.Server.MaxPageLength = override.Server.MaxPageLength
	}

	mergeString(&result.Logging.Level, override.Logging.Level, defaults.Logging.Level)
	if override.Logging.JSON {
		result.Logging.JSON = true
	}

	optionsMap := make(map[string]QueryOptions)
	for _, o := range base.QueryOptions {
		optionsMap[o.Name] = o
	}
	for _, o := range override.QueryOptions {
		optionsMap[o.Name] = o
	}
	options := make([]QueryOptions, 0, len(optionsMap))
	for _, o := range optionsMap {
		options = append(options, o)
	}
	sort.Slice(options, func(i, j int) bool {
		return options[i].Name < options[j].Name
	})
	result.QueryOptions = options
	return &result
}
