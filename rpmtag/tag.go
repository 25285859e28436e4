// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package rpmtag defines the tag id/type space of the RPM header format.
//
// The constants mirror rpm's own lib/rpmtag.h numbering (see
// github.com/chennqqi/go-rpmdb's RPMTAG_* block, which this package's naming
// follows), trimmed to the tags the header/resolver/orderer/trigger layers
// actually consume.
package rpmtag

// Tag identifies a header or signature index entry.
type Tag int32

// Type is the on-disk RPM_*_TYPE discriminator for a tag's value.
type Type uint32

const (
	Null         Type = 0
	Char         Type = 1
	Int8         Type = 2
	Int16        Type = 3
	Int32        Type = 4
	Int64        Type = 5
	String       Type = 6
	Bin          Type = 7
	StringArray  Type = 8
	I18NString   Type = 9
)

// Region tag ids (§4.2).
const (
	HeaderImage      Tag = 61
	HeaderSignatures Tag = 62
	HeaderImmutable  Tag = 63
	HeaderImmutable1 Tag = 61 // db-header variant of the immutable region
	HeaderI18NTable  Tag = 100
)

// Signature header tags.
const (
	SigSize        Tag = 1000
	SigMD5         Tag = 1004
	SigSHA1        Tag = 269
	SigSHA256      Tag = 273
	SigPayloadSize Tag = 1007
)

// Main header tags.
const (
	Name              Tag = 1000
	Version           Tag = 1001
	Release           Tag = 1002
	Epoch             Tag = 1003
	Summary           Tag = 1004
	Description       Tag = 1005
	BuildTime         Tag = 1006
	BuildHost         Tag = 1007
	InstallTime       Tag = 1008
	Size              Tag = 1009
	Distribution      Tag = 1010
	Vendor            Tag = 1011
	License           Tag = 1014
	Packager          Tag = 1015
	Group             Tag = 1016
	URL               Tag = 1020
	OS                Tag = 1021
	Arch              Tag = 1022
	Prein             Tag = 1023
	Postin            Tag = 1024
	Preun             Tag = 1025
	Postun            Tag = 1026
	OldFilenames      Tag = 1027
	FileSizes         Tag = 1028
	FileModes         Tag = 1030
	FileRDevs         Tag = 1033
	FileMTimes        Tag = 1034
	FileDigests       Tag = 1035
	FileLinkTos       Tag = 1036
	FileFlags         Tag = 1037
	FileUserName      Tag = 1039
	FileGroupName     Tag = 1040
	SourceRPM         Tag = 1044
	FileVerifyFlags   Tag = 1045
	ArchiveSize       Tag = 1046
	ProvideName       Tag = 1047
	RequireFlags      Tag = 1048
	RequireName       Tag = 1049
	RequireVersion    Tag = 1050
	ConflictFlags     Tag = 1053
	ConflictName      Tag = 1054
	ConflictVersion   Tag = 1055
	RPMVersion        Tag = 1064
	TriggerScripts    Tag = 1065
	TriggerName       Tag = 1066
	TriggerVersion    Tag = 1067
	TriggerFlags      Tag = 1068
	TriggerIndex      Tag = 1069
	PreInProg         Tag = 1085
	PostInProg        Tag = 1086
	PreUnProg         Tag = 1087
	PostUnProg        Tag = 1088
	ObsoleteName      Tag = 1090
	TriggerScriptProg Tag = 1092
	FileDevices       Tag = 1095
	FileInodes        Tag = 1096
	FileLangs         Tag = 1097
	Prefixes          Tag = 1098
	DirIndexes        Tag = 1116
	Basenames         Tag = 1117
	DirNames          Tag = 1118
	PayloadFormat     Tag = 1124
	PayloadCompressor Tag = 1125
	PayloadFlags      Tag = 1126
	ObsoleteFlags     Tag = 1114
	ObsoleteVersion   Tag = 1115
	ProvideFlags      Tag = 1112
	ProvideVersion    Tag = 1113
	FileColors        Tag = 1140
	FileDigestAlgo    Tag = 5011
	RecommendName     Tag = 5046
	RecommendVersion  Tag = 5047
	RecommendFlags    Tag = 5048
	SuggestName       Tag = 5049
	SuggestVersion    Tag = 5050
	SuggestFlags      Tag = 5051
)

// schema gives the expected type, multiplicity (-1 means array/N) and flag
// bits for a tag, used by the header codec to validate and by the writer to
// pick the right encoding. Flags bit 0 = legacy, 1 = source-only,
// 2 = binary-only, 3 = duplicate-rename-eligible.
type Schema struct {
	Type  Type
	Count int
	Flags uint8
}

const (
	FlagLegacy uint8 = 1 << iota
	FlagSourceOnly
	FlagBinaryOnly
	FlagDupRename
)

// Schemas is the allowlist of tags this module understands well enough to
// validate on read. Tags not present here are still round-tripped (copied
// through verbatim as raw header entries, read back via Header.Get) but are not
// type/count-checked.
var Schemas = map[Tag]Schema{
	Name:              {String, 1, 0},
	Version:           {String, 1, 0},
	Release:           {String, 1, 0},
	Epoch:             {Int32, 1, 0},
	Summary:           {I18NString, -1, 0},
	Description:       {I18NString, -1, 0},
	Size:              {Int32, 1, 0},
	License:           {String, 1, 0},
	Vendor:            {String, 1, 0},
	Packager:          {String, 1, 0},
	Group:             {I18NString, -1, 0},
	URL:               {String, 1, 0},
	OS:                {String, 1, 0},
	Arch:              {String, 1, 0},
	SourceRPM:         {String, 1, 0},
	PayloadFormat:     {String, 1, 0},
	PayloadCompressor: {String, 1, 0},
	PayloadFlags:      {String, 1, 0},
	OldFilenames:      {StringArray, -1, FlagLegacy},
	FileSizes:         {Int32, -1, 0},
	FileModes:         {Int16, -1, 0},
	FileRDevs:         {Int16, -1, 0},
	FileMTimes:        {Int32, -1, 0},
	FileDigests:       {StringArray, -1, 0},
	FileLinkTos:       {StringArray, -1, 0},
	FileFlags:         {Int32, -1, 0},
	FileUserName:      {StringArray, -1, 0},
	FileGroupName:     {StringArray, -1, 0},
	FileVerifyFlags:   {Int32, -1, 0},
	FileDevices:       {Int32, -1, 0},
	FileInodes:        {Int32, -1, 0},
	FileLangs:         {StringArray, -1, 0},
	FileColors:        {Int32, -1, 0},
	FileDigestAlgo:    {Int32, 1, 0},
	DirIndexes:        {Int32, -1, 0},
	Basenames:         {StringArray, -1, 0},
	DirNames:          {StringArray, -1, 0},
	ProvideName:       {StringArray, -1, 0},
	ProvideFlags:      {Int32, -1, 0},
	ProvideVersion:    {StringArray, -1, 0},
	RequireName:       {StringArray, -1, 0},
	RequireFlags:      {Int32, -1, 0},
	RequireVersion:    {StringArray, -1, 0},
	ConflictName:      {StringArray, -1, 0},
	ConflictFlags:     {Int32, -1, 0},
	ConflictVersion:   {StringArray, -1, 0},
	ObsoleteName:      {StringArray, -1, 0},
	ObsoleteFlags:     {Int32, -1, 0},
	ObsoleteVersion:   {StringArray, -1, 0},
	RecommendName:     {StringArray, -1, 0},
	RecommendFlags:    {Int32, -1, 0},
	RecommendVersion:  {StringArray, -1, 0},
	SuggestName:       {StringArray, -1, 0},
	SuggestFlags:      {Int32, -1, 0},
	SuggestVersion:    {StringArray, -1, 0},
	TriggerName:       {StringArray, -1, 0},
	TriggerVersion:    {StringArray, -1, 0},
	TriggerFlags:      {Int32, -1, 0},
	TriggerIndex:      {Int32, -1, 0},
	TriggerScripts:    {StringArray, -1, 0},
	TriggerScriptProg: {StringArray, -1, 0},
	Prein:             {String, 1, 0},
	Postin:            {String, 1, 0},
	Preun:             {String, 1, 0},
	Postun:            {String, 1, 0},
	PreInProg:         {String, 1, 0},
	PostInProg:        {String, 1, 0},
	PreUnProg:         {String, 1, 0},
	PostUnProg:        {String, 1, 0},
	HeaderI18NTable:   {StringArray, -1, 0},
}
