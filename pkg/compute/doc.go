/*
Package compute abstracts the compute platform behind the two calls the
controllers actually make.

The recovery controller launches a replacement with CreateFromTemplate
and then polls Describe until the instance reports running; the DNS
reconciler calls Describe to resolve the instance's current public
address. Everything else about the instance — its spot request, AMI,
bootstrap script, networking — lives in the launch template, owned by
infrastructure code.

EC2Platform is the production implementation. Tests substitute an
in-memory Platform; the interface is small enough that fakes are a dozen
lines.
*/
package compute
