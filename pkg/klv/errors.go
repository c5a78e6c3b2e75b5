package klv

import "errors"

var errUnrecognizedPartitionKey = errors.New("klv: key does not carry a recognized partition-pack prefix")
