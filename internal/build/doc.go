// Package build implements production builds of Cotton projects.
//
// A build compiles the project binary, copies static assets into the
// output directory (fingerprinting CSS and JS files when enabled),
// snapshots the route table, and writes an asset manifest. The deploy
// step uploads the finished output directory to S3.
package build
