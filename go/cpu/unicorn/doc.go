// Package unicorn runs the PowerPC guest on the Unicorn engine instead of the
// pure-Go interpreter. It needs libunicorn and libcapstone and is only built
// with the unicorn build tag.
package unicorn
