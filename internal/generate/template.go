package generate

import "text/template"

var providerTemplate = template.Must(template.New("provider").Parse(`// <auto-generated>
// Generated by fixturegen. DO NOT EDIT.
// </auto-generated>
#nullable enable
{{- if .Namespace}}

namespace {{.Namespace}}
{
{{- end}}
    public partial class {{.Name}} : {{.Base}}
    {
{{- range .Roots}}
        public {{.Class}} {{.Member}} => new {{.Class}}();
{{- end}}
{{- range .Segments}}

        /// <summary>{{.Kind}} {{.Path}} of type {{.Type}}.</summary>
        public sealed class {{.Class}} : {{$.MemberAPI}}.MemberPath<{{$.Target}}, {{.Type}}>
        {
            public {{.Class}}() : base("{{.Path}}", "{{.Unique}}") { }
{{- range .Children}}

            public {{.Class}} {{.Member}} => new {{.Class}}();
{{- end}}
        }
{{- end}}
    }
{{- if .Namespace}}
}
{{- end}}
`))
