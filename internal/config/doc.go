// Package config manages host-level settings stored at
// /etc/atm/config.yaml (C:/ProgramData/atm/config.yaml on Windows). Values
// resolve from ATM_* environment variables first, then the file, then the
// platform defaults. The file only ever holds keys set explicitly.
package config
