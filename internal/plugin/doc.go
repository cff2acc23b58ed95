// Package plugin provides the extension runtime for bridgelet.
//
// An extension is a Lua script (or directory with a manifest) that exports
// platform and accessory constructors. The child process loads exactly one
// extension for its whole lifetime.
//
// # Extension structure
//
// Single-file extension:
//
//	/path/to/my-extension.lua
//
// Directory extension:
//
//	/path/to/my-extension/
//	├── plugin.json   # or plugin.toml (optional)
//	└── init.lua      # entry point
//
// # Extension API
//
// The entry file registers constructors through the bridgelet module,
// then optionally defines a global initialize() hook that runs once after
// the file is executed:
//
//	bridgelet.register_platform("my-platform", function(log, config, api)
//	    log.info("platform starting")
//	    return {
//	        accessories = function()
//	            return {
//	                { name = "Lamp", services = { { type = "lightbulb" } } },
//	            }
//	        end,
//	    }
//	end)
//
// A platform constructor returns an instance table. Its capability is
// resolved exactly once from the table's shape: a configure_accessory
// function makes it a dynamic platform, an accessories function makes it a
// static one, and a table with neither is independent — its constructor
// side effects are the whole contract.
package plugin
