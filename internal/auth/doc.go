// Package auth registers users and issues bearer tokens.
package auth
